// Package cache provides process-wide, string-keyed caches that can persist
// across runs through gache.
package cache

import (
	"sync"

	"github.com/metafates/gache"
	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/log"
	"github.com/samber/mo"
)

// Store maps item ids to values. Entries are never invalidated during the
// lifetime of the process; the last write for a key wins.
// It is safe for concurrent use.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	backing *gache.Cache[map[string]V]
}

// New returns an in-memory store.
func New[V any]() *Store[V] {
	return &Store[V]{entries: make(map[string]V)}
}

// Persistent returns a store backed by a JSON file at path. Entries saved by
// earlier runs are loaded immediately; a missing or unreadable file starts
// the store empty.
func Persistent[V any](path string) *Store[V] {
	s := New[V]()
	s.backing = gache.New[map[string]V](&gache.Options{
		Path:       path,
		FileSystem: &filesystem.GacheFs{},
	})

	saved, expired, err := s.backing.Get()
	switch {
	case err != nil:
		log.Warnf("cache %s: %s", path, err)
	case !expired && saved != nil:
		s.entries = saved
	}

	return s
}

// Get returns the value stored for key.
func (s *Store[V]) Get(key string) mo.Option[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.entries[key]; ok {
		return mo.Some(v)
	}
	return mo.None[V]()
}

// Set stores v for key and persists the store when it has a backing file.
// A failed write keeps the entry in memory.
func (s *Store[V]) Set(key string, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = v
	if s.backing == nil {
		return nil
	}
	return s.backing.Set(s.entries)
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every entry, including the persisted ones.
func (s *Store[V]) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]V)
	if s.backing == nil {
		return nil
	}
	return s.backing.Set(s.entries)
}
