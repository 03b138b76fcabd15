// Package session is the playback session controller. It owns one media
// element, the play queue and the server session of the item being played,
// and turns element events and user commands into loads, reports and queue
// moves.
//
// All state lives on a single event loop goroutine. Commands are marshalled
// onto it and wait for the result; network work runs in the background and
// posts its continuation back to the loop.
package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/reelix-cli/reelix/chapter"
	"github.com/reelix-cli/reelix/episode"
	"github.com/reelix-cli/reelix/internal/cache"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/player"
	"github.com/reelix-cli/reelix/progress"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/stream"
	"github.com/reelix-cli/reelix/ticks"
	"github.com/reelix-cli/reelix/track"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

var (
	ErrClosed     = errors.New("session is closed")
	ErrNotPlaying = errors.New("nothing is playing")
	ErrNoChapters = errors.New("item has no chapters")
)

// Server is the media server as seen by a session.
type Server interface {
	stream.Fetcher
	episode.Server
	progress.Server
}

// History remembers how far items were played.
type History interface {
	Record(item *queue.Item, position, duration float64)
}

// Options configure a Controller. Zero values are usable.
type Options struct {
	Autoplay bool
	// AutoContinue allows looking up the next episode when a single
	// episode ends.
	AutoContinue bool
	MaxBitrate   int
	Buffer       stream.BufferConfig
	Engines      stream.EngineFactory
	Rewriter     stream.Rewriter

	HeartbeatSeconds int
	ChapterRestart   float64

	// Chapters and ItemTypes are shared between sessions.
	Chapters  *cache.Store[[]chapter.Mark]
	ItemTypes *cache.Store[string]

	History History
	Rand    *rand.Rand
}

type titled interface {
	SetTitle(title string) error
}

// Controller is a playback session over one element.
type Controller struct {
	el       player.Element
	server   Server
	options  Options
	loop     *loop
	queue    *queue.Queue
	loader   *stream.Loader
	resolver *episode.Resolver
	reporter *progress.Reporter
	chapters *cache.Store[[]chapter.Mark]

	release     func()
	unsubscribe func()

	state       PlaybackState
	sessionOpen bool
	lookingUp   bool
	exhausted   bool
	err         error
	closed      bool

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSub     int
	last        Snapshot
}

// New takes ownership of el and starts the event loop. It fails with
// player.ErrElementInUse when another session owns el.
func New(el player.Element, server Server, options Options) (*Controller, error) {
	release, err := player.Acquire(el)
	if err != nil {
		return nil, err
	}

	if options.Chapters == nil {
		options.Chapters = cache.New[[]chapter.Mark]()
	}
	if options.ItemTypes == nil {
		options.ItemTypes = cache.New[string]()
	}
	if options.Rand == nil {
		options.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if options.ChapterRestart <= 0 {
		options.ChapterRestart = chapter.RestartThreshold
	}

	c := &Controller{
		el:          el,
		server:      server,
		options:     options,
		loop:        newLoop(),
		queue:       queue.New(),
		resolver:    episode.New(server, options.ItemTypes),
		chapters:    options.Chapters,
		release:     release,
		subscribers: make(map[int]func(Snapshot)),
		state: PlaybackState{
			Volume: el.Volume(),
			Muted:  el.Muted(),
		},
	}

	c.reporter = progress.New(server, func() (bool, int) {
		return c.state.Muted, c.state.Volume
	}).WithInterval(options.HeartbeatSeconds)

	c.loader = stream.NewLoader(el, server, c.loop, stream.Config{
		MaxBitrate: options.MaxBitrate,
		Buffer:     options.Buffer,
		Engines:    options.Engines,
		Rewriter:   options.Rewriter,
	})
	c.loader.OnNotice(c.onNotice)

	c.unsubscribe = el.Subscribe(func(ev player.Event) {
		c.loop.Post(func() {
			if !c.closed {
				c.onElement(ev)
			}
		})
	})

	go c.loop.run(c.publish)
	return c, nil
}

// call runs fn on the loop and waits for it.
func (c *Controller) call(fn func() error) error {
	result := make(chan error, 1)
	posted := c.loop.post(func() {
		if c.closed {
			result <- ErrClosed
			return
		}
		result <- fn()
	})
	if !posted {
		return ErrClosed
	}
	return <-result
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// on the event loop and must not call back into the controller.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subscribers, id)
	}
}

func (c *Controller) publish() {
	snapshot := c.snapshot()

	c.subMu.Lock()
	c.last = snapshot
	subscribers := lo.Values(c.subscribers)
	c.subMu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// Snapshot returns the current state. After Close it returns the last state
// published.
func (c *Controller) Snapshot() Snapshot {
	var snapshot Snapshot
	err := c.call(func() error {
		snapshot = c.snapshot()
		return nil
	})
	if err != nil {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		return c.last
	}
	return snapshot
}

func (c *Controller) snapshot() Snapshot {
	audio, subtitle := c.loader.Selection()

	state := c.state
	state.Repeat = c.queue.Repeat()
	state.Shuffle = c.queue.Shuffled()

	s := Snapshot{
		State:    c.loader.State(),
		Playback: state,
		Tracks: TrackSelection{
			Audio:     audio,
			Subtitle:  subtitle,
			Switching: c.loader.State() == stream.SwitchingTrack,
		},
		Catalog:   c.loader.Catalog(),
		Queue:     c.queue.Items(),
		Index:     c.queue.Index(),
		Chapter:   -1,
		Busy:      c.lookingUp || c.loader.Fetching(),
		Exhausted: c.exhausted,
		Err:       c.err,
		Closed:    c.closed,
	}

	if item, ok := c.queue.Current().Get(); ok {
		s.Current = item
		if marks, ok := item.Chapters.Get(); ok && len(marks) > 0 {
			s.Chapters = marks
			s.Chapter, _, _ = chapter.New(marks).Current(c.state.CurrentTime)
		}
	}

	return s
}

func (c *Controller) onElement(ev player.Event) {
	before := c.loader.State()
	c.loader.HandleEvent(ev)

	switch ev.Kind {
	case player.TimeUpdate:
		if before == stream.Loading || before == stream.SwitchingTrack {
			return
		}
		c.state.CurrentTime = ev.Time
		if before == stream.Playing || before == stream.Paused {
			c.reporter.Tick(ev.Time, !c.state.Playing)
		}
	case player.LoadedMetadata:
		c.state.Duration = ev.Duration
	case player.Play:
		c.state.Playing = true
	case player.Pause:
		c.state.Playing = false
		if before == stream.Playing && c.sessionOpen {
			c.reporter.Report(c.state.CurrentTime, true)
			c.reporter.Stop(c.state.CurrentTime)
		}
	case player.Ended:
		c.state.Playing = false
		if before.Settled() && before != stream.Ended {
			c.finish()
			c.advance(episode.Forward, true)
		}
	case player.VolumeChange:
		c.state.Volume = c.el.Volume()
		c.state.Muted = c.el.Muted()
	case player.Error:
		c.state.Playing = false
		c.err = ev.Err
	}
}

// finish closes the server session of an item that played to its end.
func (c *Controller) finish() {
	item := c.loader.Item()
	if item == nil {
		return
	}

	if ended := c.state.Duration; ended > 0 {
		c.state.CurrentTime = ended
	}
	c.closeSession()
	c.remember(item)
	item.ResumeTicks = 0
}

func (c *Controller) onNotice(n stream.Notice) {
	switch n.Kind {
	case stream.Started:
		c.err = nil
		c.bind(n.At)
		c.prepare(c.loader.Item())
	case stream.Switched:
		c.closeSessionAt(n.At)
		c.bind(n.At)
	case stream.LoadFailed:
		log.Errorf("load %s: %s", c.describe(), n.Err)
		c.state.Playing = false
		c.err = n.Err
	case stream.SwitchFailed:
		log.Errorf("switch tracks of %s: %s", c.describe(), n.Err)
		c.err = n.Err
	case stream.Degraded:
		log.Infof("playing %s without the adaptive engine", c.describe())
	}
}

func (c *Controller) describe() string {
	if item := c.loader.Item(); item != nil {
		return item.String()
	}
	return "nothing"
}

func (c *Controller) bind(at float64) {
	d := c.loader.Descriptor()
	if d == nil || d.PlaySessionID == "" {
		return
	}

	c.reporter.Bind(d)
	c.reporter.Start(at)
	c.sessionOpen = true
}

func (c *Controller) closeSession() {
	c.closeSessionAt(c.state.CurrentTime)
}

func (c *Controller) closeSessionAt(at float64) {
	if c.sessionOpen {
		c.reporter.Stop(at)
		c.sessionOpen = false
	}
}

func (c *Controller) remember(item *queue.Item) {
	if c.options.History != nil && item != nil {
		c.options.History.Record(item, c.state.CurrentTime, c.state.Duration)
	}
}

// prepare fetches what the item lacks: chapters and its classification.
func (c *Controller) prepare(item *queue.Item) {
	if item == nil {
		return
	}

	if marks, ok := item.Chapters.Get(); ok {
		c.showChapters(marks)
	} else if marks, ok := c.chapters.Get(item.ID).Get(); ok {
		item.Chapters = mo.Some(marks)
		c.showChapters(marks)
	} else if item.URL == "" {
		c.fetchChapters(item)
	}

	if item.URL == "" && c.resolver.Classify(item) == episode.Unknown {
		var kind episode.Kind
		c.loop.Go(func(ctx context.Context) {
			kind = c.resolver.Lookup(ctx, item)
		}, func() {
			log.Debugf("%s classified as %s", item.ID, kind)
		})
	}
}

func (c *Controller) fetchChapters(item *queue.Item) {
	var (
		marks []chapter.Mark
		err   error
	)

	c.loop.Go(func(ctx context.Context) {
		found, fetchErr := c.server.Item(ctx, item.ID)
		if fetchErr != nil {
			err = fetchErr
			return
		}
		marks = chapter.FromServer(found.Chapters)
	}, func() {
		if err != nil {
			log.Warnf("chapters of %s: %s", item.ID, err)
			return
		}
		if c.closed {
			return
		}

		if err := c.chapters.Set(item.ID, marks); err != nil {
			log.Warnf("cache chapters of %s: %s", item.ID, err)
		}

		if current, ok := c.queue.Current().Get(); !ok || current != item {
			return
		}
		item.Chapters = mo.Some(marks)
		c.showChapters(marks)
	})
}

func (c *Controller) showChapters(marks []chapter.Mark) {
	if len(marks) == 0 {
		return
	}
	if el, ok := c.el.(player.Chaptered); ok {
		if err := el.ShowChapters(marks); err != nil {
			log.Warnf("show chapters: %s", err)
		}
	}
}

// open loads item from resume seconds, closing the current session first.
func (c *Controller) open(item *queue.Item, resume float64) {
	if previous := c.loader.Item(); previous != nil {
		c.closeSession()
		if c.active() {
			c.remember(previous)
			previous.ResumeTicks = ticks.FromSeconds(c.state.CurrentTime)
		}
	}

	c.exhausted = false
	c.err = nil
	c.state.CurrentTime = resume
	c.state.Duration = 0
	c.reporter.Unbind()

	if el, ok := c.el.(titled); ok {
		if err := el.SetTitle(item.String()); err != nil {
			log.Warnf("set title: %s", err)
		}
	}

	c.loader.Load(item, stream.LoadOptions{Resume: resume, Autoplay: c.options.Autoplay})
}

// active reports whether an item is loaded and has not ended.
func (c *Controller) active() bool {
	switch c.loader.State() {
	case stream.Ready, stream.Playing, stream.Paused, stream.SwitchingTrack:
		return true
	}
	return false
}

func (c *Controller) openCurrent() {
	if item, ok := c.queue.Current().Get(); ok {
		c.open(item, ticks.ToSeconds(item.ResumeTicks))
	}
}

// advance moves in dir by the first rule that applies: repeat-one restarts
// the item, the queue moves to a neighbour, repeat-all wraps, a single
// episode looks up its sibling. Otherwise the queue is exhausted.
func (c *Controller) advance(dir episode.Direction, ended bool) Outcome {
	current, ok := c.queue.Current().Get()
	if !ok {
		return Exhausted
	}

	if c.queue.Repeat() == queue.RepeatOne {
		c.open(current, 0)
		return Restarted
	}

	moved := lo.Ternary(dir == episode.Forward, c.queue.Advance, c.queue.Retreat)()
	if moved {
		c.openCurrent()
		return Advanced
	}

	if c.queue.Repeat() == queue.RepeatAll && c.queue.Len() > 1 {
		c.queue.Wrap(dir == episode.Backward)
		c.openCurrent()
		return Wrapped
	}

	if c.options.AutoContinue && c.queue.Len() == 1 && c.resolver.Classify(current) == episode.Episode {
		if !c.lookingUp {
			c.lookupSibling(current, dir)
		}
		return Sibling
	}

	if ended {
		c.exhausted = true
	}
	return Exhausted
}

func (c *Controller) lookupSibling(item *queue.Item, dir episode.Direction) {
	c.lookingUp = true

	var sibling mo.Option[*queue.Item]
	c.loop.Go(func(ctx context.Context) {
		sibling = c.resolver.Sibling(ctx, item, dir)
	}, func() {
		c.lookingUp = false
		if c.closed {
			return
		}
		if current, ok := c.queue.Current().Get(); !ok || current != item {
			return
		}

		next, ok := sibling.Get()
		if !ok {
			log.Infof("no episode after %s", item)
			c.exhausted = c.loader.State() == stream.Ended
			return
		}

		c.queue.Replace(next)
		c.openCurrent()
	})
}

// Open replaces the queue with items and starts playing the one at index.
func (c *Controller) Open(items []*queue.Item, index int) error {
	return c.call(func() error {
		c.queue.Replace(items...)
		if c.queue.Len() == 0 {
			c.stop()
			return nil
		}
		if err := c.queue.Jump(index); err != nil {
			return err
		}
		c.openCurrent()
		return nil
	})
}

// Enqueue appends items and starts playing when nothing is loaded.
func (c *Controller) Enqueue(items ...*queue.Item) error {
	return c.call(func() error {
		c.queue.Add(items...)
		if c.loader.State() == stream.Idle {
			c.openCurrent()
		}
		return nil
	})
}

func (c *Controller) loaded() error {
	switch c.loader.State() {
	case stream.Idle, stream.Loading, stream.Error:
		return ErrNotPlaying
	}
	return nil
}

// Play resumes playback. An ended item is restarted.
func (c *Controller) Play() error {
	return c.call(func() error {
		if c.loader.State() == stream.Ended {
			if item, ok := c.queue.Current().Get(); ok {
				c.open(item, 0)
				return nil
			}
		}
		if err := c.loaded(); err != nil {
			return err
		}
		return c.el.Play()
	})
}

func (c *Controller) Pause() error {
	return c.call(func() error {
		if err := c.loaded(); err != nil {
			return err
		}
		return c.el.Pause()
	})
}

func (c *Controller) TogglePause() error {
	paused := true
	if err := c.call(func() error {
		paused = c.el.Paused()
		return nil
	}); err != nil {
		return err
	}

	if paused {
		return c.Play()
	}
	return c.Pause()
}

// Seek moves to seconds, clamped to the item.
func (c *Controller) Seek(seconds float64) error {
	return c.call(func() error {
		return c.seek(seconds)
	})
}

// SeekBy moves by delta seconds from the current position.
func (c *Controller) SeekBy(delta float64) error {
	return c.call(func() error {
		return c.seek(c.el.CurrentTime() + delta)
	})
}

func (c *Controller) seek(seconds float64) error {
	if err := c.loaded(); err != nil {
		return err
	}

	seconds = max(seconds, 0)
	if d := c.state.Duration; d > 0 {
		seconds = min(seconds, d)
	}
	return c.el.Seek(seconds)
}

func (c *Controller) SetVolume(percent int) error {
	return c.call(func() error {
		return c.el.SetVolume(lo.Clamp(percent, 0, 100))
	})
}

func (c *Controller) ToggleMute() error {
	return c.call(func() error {
		return c.el.SetMuted(!c.el.Muted())
	})
}

// SelectAudio switches to the audio stream with the given index.
func (c *Controller) SelectAudio(index int) error {
	return c.call(func() error {
		_, subtitle := c.loader.Selection()
		return c.loader.SwitchTrack(index, subtitle)
	})
}

// SelectSubtitle switches to the subtitle stream with the given index, or
// turns subtitles off with track.SubtitleOff.
func (c *Controller) SelectSubtitle(index int) error {
	return c.call(func() error {
		audio, _ := c.loader.Selection()
		return c.loader.SwitchTrack(audio, index)
	})
}

// CycleSubtitle selects the next subtitle, going through "off" after the last.
func (c *Controller) CycleSubtitle() error {
	return c.call(func() error {
		audio, subtitle := c.loader.Selection()
		choices := append([]int{track.SubtitleOff}, lo.Map(c.loader.Catalog().Subtitle, func(t track.Track, _ int) int {
			return t.Index
		})...)
		next := choices[(lo.IndexOf(choices, subtitle)+1)%len(choices)]
		return c.loader.SwitchTrack(audio, next)
	})
}

// CycleAudio selects the next audio stream.
func (c *Controller) CycleAudio() error {
	return c.call(func() error {
		audio, subtitle := c.loader.Selection()
		choices := lo.Map(c.loader.Catalog().Audio, func(t track.Track, _ int) int { return t.Index })
		if len(choices) < 2 {
			return nil
		}
		next := choices[(lo.IndexOf(choices, audio)+1)%len(choices)]
		return c.loader.SwitchTrack(next, subtitle)
	})
}

func (c *Controller) chapterIndex() (*chapter.Index, error) {
	item, ok := c.queue.Current().Get()
	if !ok {
		return nil, ErrNotPlaying
	}
	marks, ok := item.Chapters.Get()
	if !ok || len(marks) == 0 {
		return nil, ErrNoChapters
	}
	return chapter.New(marks).WithRestartThreshold(c.options.ChapterRestart), nil
}

// NextChapter seeks to the start of the next chapter. It reports false on
// the last chapter.
func (c *Controller) NextChapter() (bool, error) {
	var moved bool
	err := c.call(func() error {
		index, err := c.chapterIndex()
		if err != nil {
			return err
		}
		mark, ok := index.Next(c.el.CurrentTime())
		if !ok {
			return nil
		}
		moved = true
		return c.seek(mark.Start())
	})
	return moved, err
}

// PreviousChapter restarts the current chapter, or goes to the previous one
// near its start.
func (c *Controller) PreviousChapter() (bool, error) {
	var moved bool
	err := c.call(func() error {
		index, err := c.chapterIndex()
		if err != nil {
			return err
		}
		mark, ok := index.Previous(c.el.CurrentTime())
		if !ok {
			return nil
		}
		moved = true
		return c.seek(mark.Start())
	})
	return moved, err
}

// Next moves forward. A sibling episode lookup completes in the background.
func (c *Controller) Next() (Outcome, error) {
	var outcome Outcome
	err := c.call(func() error {
		outcome = c.advance(episode.Forward, false)
		return nil
	})
	return outcome, err
}

// Previous moves backward, wrapping to the last item under repeat-all.
func (c *Controller) Previous() (Outcome, error) {
	var outcome Outcome
	err := c.call(func() error {
		outcome = c.advance(episode.Backward, false)
		return nil
	})
	return outcome, err
}

// JumpTo plays the item at index.
func (c *Controller) JumpTo(index int) error {
	return c.call(func() error {
		if err := c.queue.Jump(index); err != nil {
			return err
		}
		c.openCurrent()
		return nil
	})
}

// Reorder moves a queue item. Playback is not affected.
func (c *Controller) Reorder(from, to int) error {
	return c.call(func() error {
		return c.queue.Reorder(from, to)
	})
}

// Remove deletes a queue item. Removing the current item plays the one that
// takes its place; removing the last one stops playback.
func (c *Controller) Remove(index int) error {
	return c.call(func() error {
		current := c.queue.Current()
		if err := c.queue.Remove(index); err != nil {
			return err
		}

		if c.queue.Len() == 0 {
			c.stop()
			return nil
		}
		if now, ok := c.queue.Current().Get(); ok && now != current.OrEmpty() {
			c.openCurrent()
		}
		return nil
	})
}

// SetRepeat sets the repeat mode.
func (c *Controller) SetRepeat(mode queue.RepeatMode) error {
	return c.call(func() error {
		c.queue.SetRepeat(mode)
		return nil
	})
}

// CycleRepeat moves to the next repeat mode and returns it.
func (c *Controller) CycleRepeat() (queue.RepeatMode, error) {
	var mode queue.RepeatMode
	err := c.call(func() error {
		mode = c.queue.Repeat().Next()
		c.queue.SetRepeat(mode)
		return nil
	})
	return mode, err
}

// ToggleShuffle turns shuffle on or off and returns the new setting.
func (c *Controller) ToggleShuffle() (bool, error) {
	var on bool
	err := c.call(func() error {
		on = !c.queue.Shuffled()
		c.queue.SetShuffle(on, c.options.Rand)
		return nil
	})
	return on, err
}

// Retry reloads the current item from the last known position.
func (c *Controller) Retry() error {
	return c.call(func() error {
		item, ok := c.queue.Current().Get()
		if !ok {
			return ErrNotPlaying
		}
		c.open(item, c.state.CurrentTime)
		return nil
	})
}

// stop ends the current session and unloads the element.
func (c *Controller) stop() {
	if item := c.loader.Item(); item != nil {
		c.closeSession()
		if c.active() {
			c.remember(item)
		}
	}
	c.reporter.Unbind()
	c.loader.Teardown()
	c.state.Playing = false
}

// Close tears the session down: the engine is destroyed, text tracks are
// removed, the stop report is sent with the last position and the element is
// released. Results of requests still in flight are discarded. Close waits
// for outstanding reports and is safe to call more than once.
func (c *Controller) Close() error {
	err := c.call(func() error {
		c.stop()
		c.closed = true
		c.unsubscribe()
		c.release()
		return nil
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}

	c.loop.stop()
	<-c.loop.done
	c.reporter.Flush()
	return err
}
