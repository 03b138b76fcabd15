// Package stream loads playback descriptors into a media element, directly
// or through an adaptive streaming engine, and reloads them when a track
// switch needs a new server-side session.
package stream

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/reelix-cli/reelix/player"
	"github.com/reelix-cli/reelix/track"
)

// EngineEventKind enumerates adaptive engine events.
type EngineEventKind int

const (
	// Parsed is emitted once the manifest is parsed and the element has its source.
	Parsed EngineEventKind = iota
	// Failed is emitted on errors. Fatal failures stop the engine.
	Failed
)

// EngineEvent is emitted by an Engine.
type EngineEvent struct {
	Kind  EngineEventKind
	Fatal bool
	Err   error
}

// Engine turns an adaptive manifest into something the element can play.
// Events may be emitted from any goroutine.
type Engine interface {
	Attach(el player.Element) error
	Load(url string)
	// Tracks returns the renditions found in the manifest.
	Tracks() []track.Track
	OnEvent(handler func(EngineEvent))
	Destroy()
}

// BufferConfig bounds the forward and back buffers of an engine.
type BufferConfig struct {
	Ahead  time.Duration
	Behind time.Duration
}

// EngineFactory constructs an engine. It reports false when none is available.
type EngineFactory func(buffer BufferConfig) (Engine, bool)

// NoEngine is an EngineFactory that never provides an engine.
func NoEngine(BufferConfig) (Engine, bool) {
	return nil, false
}

// Dispatcher runs network work off the event loop and applies the results on
// it.
type Dispatcher interface {
	// Go runs work in the background, then runs then on the loop. The
	// context is cancelled when the owner shuts down.
	Go(work func(ctx context.Context), then func())
	// Post runs fn on the loop.
	Post(fn func())
}

// IsAdaptive reports whether rawURL points at an HLS manifest.
func IsAdaptive(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".m3u8")
}
