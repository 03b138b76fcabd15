package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/player"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/ticks"
	"github.com/reelix-cli/reelix/track"
	"github.com/samber/mo"
)

var (
	ErrNotSwitchable = errors.New("tracks can only be switched while playing or paused")
	ErrUnknownTrack  = errors.New("no such track")
)

// Fetcher creates playback sessions on the media server.
type Fetcher interface {
	PlaybackInfo(ctx context.Context, req mediaserver.PlaybackRequest) (*mediaserver.Descriptor, error)
}

// Rewriter may replace a stream URL before it is loaded.
type Rewriter interface {
	Rewrite(ctx context.Context, item *queue.Item, streamURL string) (string, error)
}

// Config holds the loader settings.
type Config struct {
	MaxBitrate int
	Buffer     BufferConfig
	Engines    EngineFactory
	Rewriter   Rewriter
}

// LoadOptions describe how a new item starts.
type LoadOptions struct {
	// Resume is the start position in seconds.
	Resume   float64
	Autoplay bool
	// Audio and Subtitle request specific streams; the server defaults are
	// used otherwise.
	Audio    mo.Option[int]
	Subtitle mo.Option[int]
}

// pendingStart is applied once the element has the new source.
type pendingStart struct {
	at   float64
	play bool
}

// capture is the element state taken before a track switch.
type capture struct {
	at      float64
	playing bool
	from    State
}

// Loader drives one element through loads and track switches. It is not
// safe for concurrent use: every method, and every continuation it hands to
// the Dispatcher, runs on the owner's event loop.
type Loader struct {
	el       player.Element
	server   Fetcher
	dispatch Dispatcher
	config   Config
	notify   func(Notice)

	state      State
	item       *queue.Item
	descriptor *mediaserver.Descriptor
	catalog    track.Catalog
	audio      int
	subtitle   int
	engine     Engine
	streamURL  string

	generation       uint64
	fetching         bool
	awaitingMetadata bool
	start            mo.Option[pendingStart]
	switching        mo.Option[capture]
}

// NewLoader returns an idle loader for el.
func NewLoader(el player.Element, server Fetcher, dispatch Dispatcher, config Config) *Loader {
	if config.Engines == nil {
		config.Engines = NoEngine
	}

	return &Loader{
		el:       el,
		server:   server,
		dispatch: dispatch,
		config:   config,
		notify:   func(Notice) {},
		subtitle: track.SubtitleOff,
	}
}

// OnNotice sets the function receiving notices.
func (l *Loader) OnNotice(fn func(Notice)) {
	l.notify = fn
}

func (l *Loader) State() State {
	return l.state
}

// Item returns the item being played.
func (l *Loader) Item() *queue.Item {
	return l.item
}

// Descriptor returns the descriptor of the loaded session.
func (l *Loader) Descriptor() *mediaserver.Descriptor {
	return l.descriptor
}

// Catalog returns the tracks of the loaded session.
func (l *Loader) Catalog() track.Catalog {
	return l.catalog
}

// Selection returns the selected audio and subtitle indexes.
func (l *Loader) Selection() (audio, subtitle int) {
	return l.audio, l.subtitle
}

// Fetching reports whether a descriptor request is in flight.
func (l *Loader) Fetching() bool {
	return l.fetching
}

// EngineTracks returns the renditions the adaptive engine found, if any.
func (l *Loader) EngineTracks() []track.Track {
	if l.engine == nil {
		return nil
	}
	return l.engine.Tracks()
}

// Load replaces whatever is loaded with item.
func (l *Loader) Load(item *queue.Item, opts LoadOptions) {
	l.release()
	l.generation++
	gen := l.generation

	l.item = item
	l.descriptor = nil
	l.catalog = track.Catalog{}
	l.switching = mo.None[capture]()
	l.state = Loading

	req := mediaserver.PlaybackRequest{
		ItemID:      item.ID,
		ResumeTicks: ticks.FromSeconds(opts.Resume),
		MaxBitrate:  l.config.MaxBitrate,
		Audio:       opts.Audio.ToPointer(),
		Subtitle:    opts.Subtitle.ToPointer(),
	}

	l.fetch(gen, item, req, func(d *mediaserver.Descriptor, err error) {
		if err != nil {
			l.state = Error
			l.notify(Notice{Kind: LoadFailed, Err: err})
			return
		}

		l.adopt(item, d)
		l.audio = opts.Audio.OrElse(l.catalog.DefaultAudio().Index)
		l.subtitle = opts.Subtitle.OrElse(l.catalog.DefaultSubtitle())
		l.state = Ready

		if err := l.begin(d.StreamURL, pendingStart{at: opts.Resume, play: opts.Autoplay}); err != nil {
			l.state = Error
			l.notify(Notice{Kind: LoadFailed, Err: err})
			return
		}
		l.notify(Notice{Kind: Started, At: opts.Resume})
	})
}

// fetch requests a descriptor off the loop and calls done on it, unless a
// newer load or switch has been issued in the meantime.
func (l *Loader) fetch(gen uint64, item *queue.Item, req mediaserver.PlaybackRequest, done func(*mediaserver.Descriptor, error)) {
	var (
		descriptor *mediaserver.Descriptor
		err        error
	)

	l.fetching = true
	l.dispatch.Go(func(ctx context.Context) {
		if item.URL != "" {
			descriptor = &mediaserver.Descriptor{ItemID: item.ID, StreamURL: item.URL}
		} else {
			descriptor, err = l.server.PlaybackInfo(ctx, req)
		}

		if err == nil {
			descriptor.StreamURL = l.rewrite(ctx, item, descriptor.StreamURL)
		}
	}, func() {
		if gen != l.generation {
			log.Debugf("discarding superseded descriptor of %s", item.ID)
			return
		}

		l.fetching = false
		done(descriptor, err)
	})
}

func (l *Loader) rewrite(ctx context.Context, item *queue.Item, streamURL string) string {
	if l.config.Rewriter == nil {
		return streamURL
	}

	rewritten, err := l.config.Rewriter.Rewrite(ctx, item, streamURL)
	if err != nil {
		log.Warnf("rewrite stream url of %s: %s", item.ID, err)
		return streamURL
	}
	if rewritten == "" {
		return streamURL
	}
	return rewritten
}

func (l *Loader) adopt(item *queue.Item, d *mediaserver.Descriptor) {
	item.Descriptor = d
	l.descriptor = d
	l.catalog = track.Available(d.Streams)
}

// begin hands streamURL to the engine or the element. start is applied once
// the source is parsed or its metadata is loaded.
func (l *Loader) begin(streamURL string, start pendingStart) error {
	l.start = mo.Some(start)
	l.streamURL = streamURL

	if IsAdaptive(streamURL) {
		if engine, ok := l.config.Engines(l.config.Buffer); ok {
			l.engine = engine
			engine.OnEvent(func(ev EngineEvent) {
				l.dispatch.Post(func() { l.engineEvent(engine, ev) })
			})

			if err := engine.Attach(l.el); err != nil {
				log.Warnf("attach adaptive engine: %s", err)
			}
			engine.Load(streamURL)
			return nil
		}

		if !l.el.CanPlayNative("hls") {
			log.Warnf("no adaptive engine and no native support, loading %s as is", streamURL)
		}
	}

	return l.loadDirect(streamURL)
}

func (l *Loader) loadDirect(streamURL string) error {
	l.awaitingMetadata = true
	if err := l.el.Load(streamURL); err != nil {
		l.awaitingMetadata = false
		return fmt.Errorf("load stream: %w", err)
	}
	return nil
}

// engineEvent handles events of the live engine. Every new source releases
// the previous engine, so events of any other engine are stale.
func (l *Loader) engineEvent(engine Engine, ev EngineEvent) {
	if engine != l.engine {
		return
	}

	switch ev.Kind {
	case Parsed:
		l.applyStart()
	case Failed:
		if !ev.Fatal {
			log.Warnf("adaptive engine: %s", ev.Err)
			return
		}

		log.Warnf("adaptive engine failed, loading the stream directly: %s", ev.Err)
		l.destroyEngine()

		if err := l.loadDirect(l.streamURL); err != nil {
			l.state = Error
			l.notify(Notice{Kind: LoadFailed, Err: err})
			return
		}
		l.notify(Notice{Kind: Degraded, Err: ev.Err})
	}
}

// applyStart seeks to the pending start position, attaches the selected
// sidecar subtitle and attempts autoplay.
func (l *Loader) applyStart() {
	start, ok := l.start.Get()
	if !ok {
		return
	}
	l.start = mo.None[pendingStart]()
	l.switching = mo.None[capture]()

	if start.at > 0 {
		if err := l.el.Seek(start.at); err != nil {
			log.Warnf("seek to %s: %s", ticks.Format(start.at), err)
		}
	}

	l.attachSidecar()

	if !start.play {
		l.settle(Paused)
		return
	}

	switch err := l.el.Play(); {
	case err == nil:
		l.settle(Playing)
	case errors.Is(err, player.ErrAutoplayBlocked):
		log.Info("autoplay blocked, waiting for play")
		l.settle(Paused)
	default:
		log.Warnf("autoplay: %s", err)
		l.settle(Paused)
	}
}

// settle moves to s unless a newer track switch is still being fetched.
func (l *Loader) settle(s State) {
	if l.fetching && l.state == SwitchingTrack {
		return
	}
	l.state = s
}

func (l *Loader) attachSidecar() {
	t, ok := l.catalog.SubtitleByIndex(l.subtitle).Get()
	if !ok || t.NeedsNewSession() || t.DeliveryURL == "" {
		return
	}

	err := l.el.AddTextTrack(player.TextTrack{URL: t.DeliveryURL, Label: t.Label, Language: t.Language})
	if err != nil {
		log.Warnf("attach subtitle %q: %s", t.Label, err)
	}
}

// HandleEvent updates the loader state from an element event.
func (l *Loader) HandleEvent(ev player.Event) {
	switch ev.Kind {
	case player.LoadedMetadata:
		if l.awaitingMetadata {
			l.awaitingMetadata = false
			l.applyStart()
		}
	case player.Play:
		if l.state == Ready || l.state == Paused || l.state == Ended {
			l.state = Playing
		}
	case player.Pause:
		if l.state == Ready || l.state == Playing {
			l.state = Paused
		}
	case player.Ended:
		if l.state.Settled() {
			l.state = Ended
		}
	case player.Error:
		if l.state != Idle {
			log.Errorf("playback error: %s", ev.Err)
			l.state = Error
		}
	}
}

// SwitchTrack selects new audio and subtitle streams. When the server has to
// produce a new stream, the position and play state are captured, a new
// session is requested and loaded, and playback continues where it was. A
// switch issued while another is in flight supersedes it.
func (l *Loader) SwitchTrack(audio, subtitle int) error {
	switching := l.state == SwitchingTrack
	if l.state != Playing && l.state != Paused && !switching {
		return ErrNotSwitchable
	}

	audioTrack, ok := l.catalog.AudioByIndex(audio).Get()
	if !ok {
		return fmt.Errorf("%w: audio %d", ErrUnknownTrack, audio)
	}
	if subtitle != track.SubtitleOff && l.catalog.SubtitleByIndex(subtitle).IsAbsent() {
		return fmt.Errorf("%w: subtitle %d", ErrUnknownTrack, subtitle)
	}

	if !switching {
		if audio == l.audio && subtitle == l.subtitle {
			return nil
		}
		if !l.needsNewSession(audio, subtitle) {
			l.subtitle = subtitle
			l.clearTextTracks()
			l.attachSidecar()
			return nil
		}
	}

	captured, ok := l.switching.Get()
	if !ok {
		captured = capture{at: l.el.CurrentTime(), playing: !l.el.Paused(), from: l.state}
		l.switching = mo.Some(captured)
	}

	l.state = SwitchingTrack
	l.generation++
	gen := l.generation
	item := l.item

	req := mediaserver.PlaybackRequest{
		ItemID:      item.ID,
		ResumeTicks: ticks.FromSeconds(captured.at),
		MaxBitrate:  l.config.MaxBitrate,
		Subtitle:    &subtitle,
	}
	if !audioTrack.Synthetic {
		req.Audio = &audio
	}

	l.fetch(gen, item, req, func(d *mediaserver.Descriptor, err error) {
		if err != nil {
			l.switching = mo.None[capture]()
			// An earlier switch may have replaced the stream already; it
			// settles once its start is applied.
			if l.start.IsAbsent() {
				l.state = captured.from
			}
			l.notify(Notice{Kind: SwitchFailed, Err: err})
			return
		}

		l.release()
		l.adopt(item, d)
		l.audio, l.subtitle = audio, subtitle

		if err := l.begin(d.StreamURL, pendingStart{at: captured.at, play: captured.playing}); err != nil {
			l.state = Error
			l.switching = mo.None[capture]()
			l.notify(Notice{Kind: SwitchFailed, Err: err})
			return
		}
		l.notify(Notice{Kind: Switched, At: captured.at})
	})

	return nil
}

// needsNewSession reports whether moving to the selection requires a new
// server stream. Leaving a burned-in subtitle does too.
func (l *Loader) needsNewSession(audio, subtitle int) bool {
	if audio != l.audio {
		return true
	}

	for _, index := range [2]int{subtitle, l.subtitle} {
		if t, ok := l.catalog.SubtitleByIndex(index).Get(); ok && t.NeedsNewSession() {
			return true
		}
	}
	return false
}

// Teardown destroys the engine, removes text tracks and unloads the element.
// Results of requests in flight are discarded.
func (l *Loader) Teardown() {
	l.generation++
	l.release()

	if l.state != Idle {
		if err := l.el.Unload(); err != nil {
			log.Warnf("unload: %s", err)
		}
	}

	l.state = Idle
	l.fetching = false
	l.switching = mo.None[capture]()
}

// release drops the resources of the previous source.
func (l *Loader) release() {
	l.destroyEngine()
	l.clearTextTracks()
	l.awaitingMetadata = false
	l.start = mo.None[pendingStart]()
}

func (l *Loader) destroyEngine() {
	if l.engine == nil {
		return
	}
	l.engine.Destroy()
	l.engine = nil
}

func (l *Loader) clearTextTracks() {
	if err := l.el.ClearTextTracks(); err != nil {
		log.Warnf("clear text tracks: %s", err)
	}
}
