// Package player defines the media element the session controller drives
// and implements it on top of mpv's JSON IPC.
package player

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

var (
	// ErrAutoplayBlocked is returned by Play when the element refuses to start
	// without a user gesture. Playback stays paused; it is not a failure.
	ErrAutoplayBlocked = errors.New("autoplay blocked")

	// ErrElementInUse is returned by Acquire for an element another session owns.
	ErrElementInUse = errors.New("media element is owned by another session")

	ErrNotRunning = errors.New("player is not running")
)

// EventKind enumerates element events.
type EventKind int

const (
	TimeUpdate EventKind = iota
	LoadedMetadata
	Play
	Pause
	Ended
	VolumeChange
	Error
)

var eventNames = [...]string{"timeupdate", "loadedmetadata", "play", "pause", "ended", "volumechange", "error"}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is emitted by an element. Time and Duration are in seconds.
type Event struct {
	Kind     EventKind
	Time     float64
	Duration float64
	Err      error
}

// Listener receives element events in emission order.
type Listener func(Event)

// TextTrack is a sidecar subtitle file attached to the element.
type TextTrack struct {
	URL      string
	Label    string
	Language string
}

// Element is a native playback primitive: it decodes and renders, and
// reports what it does through events.
type Element interface {
	// Load replaces the current source. Playback starts paused.
	Load(url string) error
	// Unload stops playback and drops the source.
	Unload() error
	Play() error
	Pause() error
	Seek(seconds float64) error

	CurrentTime() float64
	Duration() float64
	Paused() bool

	SetVolume(percent int) error
	Volume() int
	SetMuted(muted bool) error
	Muted() bool

	// CanPlayNative reports whether the element decodes the given
	// streaming format (e.g. "hls") by itself.
	CanPlayNative(format string) bool

	AddTextTrack(track TextTrack) error
	ClearTextTracks() error

	// Subscribe registers l and returns the function that removes it.
	Subscribe(l Listener) (unsubscribe func())
}

// Buffered is implemented by elements whose forward and back buffers can be
// bounded.
type Buffered interface {
	SetBuffer(ahead, behind time.Duration) error
}

// Emitter fans events out to subscribers. Implementations of Element embed it.
type Emitter struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

// Subscribe registers l.
func (e *Emitter) Subscribe(l Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[int]Listener)
	}

	id := e.next
	e.next++
	e.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.listeners, id)
		})
	}
}

// Emit delivers ev to every subscriber, in subscription order.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, e.listeners[id])
	}
	e.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

// Subscribers returns the number of registered listeners.
func (e *Emitter) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

var owners sync.Map

// Acquire claims exclusive ownership of el. The returned release function
// gives it back and is safe to call more than once.
func Acquire(el Element) (release func(), err error) {
	token := new(byte)
	if _, taken := owners.LoadOrStore(el, token); taken {
		return nil, ErrElementInUse
	}

	var once sync.Once
	return func() {
		once.Do(func() { owners.CompareAndDelete(el, token) })
	}, nil
}
