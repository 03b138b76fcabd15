// Package playertest provides an in-memory player.Element for tests.
package playertest

import (
	"sync"
	"time"

	"github.com/reelix-cli/reelix/player"
)

// Element records every call and emits the events a real element would emit
// for play and pause. Everything else is emitted by the test.
type Element struct {
	player.Emitter

	// Native is returned by CanPlayNative.
	Native bool
	// BlockAutoplay makes Play fail with player.ErrAutoplayBlocked.
	BlockAutoplay bool
	// LoadErr is returned by Load.
	LoadErr error

	mu         sync.Mutex
	loads      []string
	seeks      []float64
	textTracks []player.TextTrack
	cleared    int
	unloads    int
	position   float64
	duration   float64
	paused     bool
	volume     int
	muted      bool
	buffer     [2]time.Duration
	titles     []string
}

// New returns a paused element at full volume.
func New() *Element {
	return &Element{paused: true, volume: 100}
}

func (e *Element) Load(url string) error {
	if e.LoadErr != nil {
		return e.LoadErr
	}

	e.mu.Lock()
	e.loads = append(e.loads, url)
	e.position = 0
	e.paused = true
	e.mu.Unlock()
	return nil
}

func (e *Element) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloads++
	return nil
}

func (e *Element) Play() error {
	if e.BlockAutoplay {
		return player.ErrAutoplayBlocked
	}
	e.setPaused(false)
	return nil
}

func (e *Element) Pause() error {
	e.setPaused(true)
	return nil
}

func (e *Element) setPaused(paused bool) {
	e.mu.Lock()
	changed := e.paused != paused
	e.paused = paused
	at := e.position
	e.mu.Unlock()

	if !changed {
		return
	}
	if paused {
		e.Emit(player.Event{Kind: player.Pause, Time: at})
	} else {
		e.Emit(player.Event{Kind: player.Play, Time: at})
	}
}

func (e *Element) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, seconds)
	e.position = seconds
	return nil
}

func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) SetVolume(percent int) error {
	e.mu.Lock()
	e.volume = percent
	e.mu.Unlock()
	e.Emit(player.Event{Kind: player.VolumeChange})
	return nil
}

func (e *Element) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Element) SetMuted(muted bool) error {
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()
	e.Emit(player.Event{Kind: player.VolumeChange})
	return nil
}

func (e *Element) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Element) CanPlayNative(string) bool {
	return e.Native
}

func (e *Element) AddTextTrack(t player.TextTrack) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.textTracks = append(e.textTracks, t)
	return nil
}

func (e *Element) ClearTextTracks() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.textTracks = nil
	e.cleared++
	return nil
}

func (e *Element) SetBuffer(ahead, behind time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = [2]time.Duration{ahead, behind}
	return nil
}

// Buffer returns the last forward and back buffer sizes.
func (e *Element) Buffer() (ahead, behind time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer[0], e.buffer[1]
}

// SetTitle records window titles.
func (e *Element) SetTitle(title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.titles = append(e.titles, title)
	return nil
}

// Loads returns every URL loaded so far.
func (e *Element) Loads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.loads...)
}

// LastLoad returns the latest loaded URL.
func (e *Element) LastLoad() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.loads) == 0 {
		return ""
	}
	return e.loads[len(e.loads)-1]
}

// Seeks returns every seek target so far.
func (e *Element) Seeks() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]float64(nil), e.seeks...)
}

// TextTracks returns the attached text tracks.
func (e *Element) TextTracks() []player.TextTrack {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]player.TextTrack(nil), e.textTracks...)
}

// Cleared returns how many times text tracks were cleared.
func (e *Element) Cleared() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleared
}

// Unloads returns how many times the element was unloaded.
func (e *Element) Unloads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unloads
}

// Titles returns the titles set so far.
func (e *Element) Titles() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.titles...)
}

// Progress moves playback to seconds and emits a time update.
func (e *Element) Progress(seconds float64) {
	e.mu.Lock()
	e.position = seconds
	e.mu.Unlock()
	e.Emit(player.Event{Kind: player.TimeUpdate, Time: seconds})
}

// Loaded emits metadata for a source of the given duration.
func (e *Element) Loaded(duration float64) {
	e.mu.Lock()
	e.duration = duration
	at := e.position
	e.mu.Unlock()
	e.Emit(player.Event{Kind: player.LoadedMetadata, Time: at, Duration: duration})
}

// Finish emits the end of the source.
func (e *Element) Finish() {
	e.mu.Lock()
	at := e.position
	e.paused = true
	e.mu.Unlock()
	e.Emit(player.Event{Kind: player.Ended, Time: at})
}
