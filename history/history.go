// Package history keeps the local resume history: where every item was
// stopped, so that "reelix --continue" can pick it up again.
package history

import (
	"github.com/metafates/gache"
	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every saved entry by item id.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Save records that item was stopped at position of duration seconds.
func Save(item *queue.Item, position, duration float64) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	entry := newEntry(item, position, duration)

	// a rewatch never lowers the watched fraction
	if existing, ok := saved[entry.ItemID]; ok && existing.Watched > entry.Watched && !entry.Finished {
		entry.Watched = existing.Watched
	}

	saved[entry.ItemID] = entry
	return cacher.Set(saved)
}

// Remove deletes the entry of an item.
func Remove(itemID string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, itemID)
	return cacher.Set(saved)
}

// Latest returns the most recently updated unfinished entry.
func Latest() mo.Option[*Entry] {
	saved, err := Get()
	if err != nil {
		log.Warnf("history: %s", err)
		return mo.None[*Entry]()
	}

	unfinished := lo.Filter(lo.Values(saved), func(e *Entry, _ int) bool {
		return !e.Finished
	})
	if len(unfinished) == 0 {
		return mo.None[*Entry]()
	}

	return mo.Some(lo.MaxBy(unfinished, func(a, b *Entry) bool {
		return a.UpdatedAt.After(b.UpdatedAt)
	}))
}

// Recorder saves stop positions for a playback session. Failures are
// logged.
type Recorder struct{}

func (Recorder) Record(item *queue.Item, position, duration float64) {
	if item.URL != "" {
		return
	}
	if err := Save(item, position, duration); err != nil {
		log.Warnf("history of %s: %s", item.ID, err)
	}
}
