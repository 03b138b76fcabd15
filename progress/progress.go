// Package progress reports playback sessions to the media server: start,
// a low frequency position heartbeat, pause reports and stop.
//
// Reports are best effort. Each one is sent from its own goroutine with a
// timeout; failures are logged and never reach the caller.
package progress

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/ticks"
)

// DefaultInterval is the heartbeat period in whole seconds of playback.
const DefaultInterval = 10

const timeout = 10 * time.Second

// Server receives session reports.
type Server interface {
	ReportStart(ctx context.Context, r mediaserver.Report) error
	ReportProgress(ctx context.Context, r mediaserver.Report) error
	ReportStop(ctx context.Context, r mediaserver.Report) error
}

// Levels returns the current mute state and volume percentage.
type Levels func() (muted bool, volume int)

// Reporter sends the reports of the session it is bound to.
type Reporter struct {
	server   Server
	levels   Levels
	interval int64

	mu            sync.Mutex
	session       mediaserver.Report
	bound         bool
	lastHeartbeat int64

	inflight sync.WaitGroup
}

// New returns an unbound reporter.
func New(server Server, levels Levels) *Reporter {
	if levels == nil {
		levels = func() (bool, int) { return false, 100 }
	}

	return &Reporter{
		server:        server,
		levels:        levels,
		interval:      DefaultInterval,
		lastHeartbeat: -1,
	}
}

// WithInterval overrides the heartbeat period. Non-positive values are ignored.
func (r *Reporter) WithInterval(seconds int) *Reporter {
	if seconds > 0 {
		r.interval = int64(seconds)
	}
	return r
}

// Bind attaches the reporter to the server session of d. Every loaded
// source, including a track switch reload, is a new session.
func (r *Reporter) Bind(d *mediaserver.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session = mediaserver.Report{
		ItemID:        d.ItemID,
		MediaSourceID: d.MediaSourceID,
		PlaySessionID: d.PlaySessionID,
		PlayMethod:    d.PlayMethod(),
		CanSeek:       true,
	}
	r.bound = true
	r.lastHeartbeat = -1
}

// Unbind detaches the reporter; later calls are dropped until the next Bind.
func (r *Reporter) Unbind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = false
}

func (r *Reporter) report(seconds float64, paused bool) (mediaserver.Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.bound {
		return mediaserver.Report{}, false
	}

	report := r.session
	report.PositionTicks = ticks.FromSeconds(math.Max(seconds, 0))
	report.IsPaused = paused
	report.IsMuted, report.VolumeLevel = r.levels()
	return report, true
}

type send func(context.Context, mediaserver.Report) error

func (r *Reporter) dispatch(name string, fn send, report mediaserver.Report) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := fn(ctx, report); err != nil {
			log.Warnf("report %s of %s: %s", name, report.ItemID, err)
		}
	}()
}

// Start announces the bound session.
func (r *Reporter) Start(seconds float64) {
	if report, ok := r.report(seconds, false); ok {
		r.dispatch("start", r.server.ReportStart, report)
	}
}

// Tick is called on every time update. It sends a heartbeat only when the
// position floored to whole seconds is a multiple of the interval, at most
// once per such second. It reports whether a heartbeat was sent.
func (r *Reporter) Tick(seconds float64, paused bool) bool {
	second := int64(math.Floor(seconds))
	if second < 0 || second%r.interval != 0 {
		return false
	}

	r.mu.Lock()
	if !r.bound || second == r.lastHeartbeat {
		r.mu.Unlock()
		return false
	}
	r.lastHeartbeat = second
	r.mu.Unlock()

	r.Report(seconds, paused)
	return true
}

// Report sends a progress report immediately.
func (r *Reporter) Report(seconds float64, paused bool) {
	if report, ok := r.report(seconds, paused); ok {
		r.dispatch("progress", r.server.ReportProgress, report)
	}
}

// Stop announces the end of the bound session at seconds.
func (r *Reporter) Stop(seconds float64) {
	if report, ok := r.report(seconds, true); ok {
		r.dispatch("stop", r.server.ReportStop, report)
	}
}

// StopSync announces the end of the bound session and waits for every
// report in flight. It is used on teardown, where the process may exit right
// after.
func (r *Reporter) StopSync(seconds float64) {
	r.Stop(seconds)
	r.Flush()
}

// Flush waits for every report in flight.
func (r *Reporter) Flush() {
	r.inflight.Wait()
}
