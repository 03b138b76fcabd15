package progress

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reelix-cli/reelix/mediaserver"
	. "github.com/smartystreets/goconvey/convey"
)

type call struct {
	kind   string
	report mediaserver.Report
}

type recorder struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (r *recorder) add(kind string, report mediaserver.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{kind: kind, report: report})
	return r.err
}

func (r *recorder) ReportStart(_ context.Context, report mediaserver.Report) error {
	return r.add("start", report)
}

func (r *recorder) ReportProgress(_ context.Context, report mediaserver.Report) error {
	return r.add("progress", report)
}

func (r *recorder) ReportStop(_ context.Context, report mediaserver.Report) error {
	return r.add("stop", report)
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.calls))
	for i, c := range r.calls {
		kinds[i] = c.kind
	}
	return kinds
}

var descriptor = &mediaserver.Descriptor{ItemID: "item", PlaySessionID: "ps", MediaSourceID: "ms", Transcoding: true}

func TestHeartbeat(t *testing.T) {
	Convey("Given a bound reporter", t, func() {
		server := &recorder{}
		reporter := New(server, func() (bool, int) { return true, 40 })
		reporter.Bind(descriptor)

		Convey("7s, 9s, 10s, 13s sends exactly one heartbeat, at 10s", func() {
			sent := 0
			for _, at := range []float64{7, 9, 10, 13} {
				if reporter.Tick(at, false) {
					sent++
				}
			}
			reporter.Flush()

			So(sent, ShouldEqual, 1)
			So(server.calls, ShouldHaveLength, 1)
			So(server.calls[0].report.PositionTicks, ShouldEqual, 100_000_000)
		})

		Convey("Several updates within the same second send one heartbeat", func() {
			for _, at := range []float64{20.0, 20.25, 20.5, 20.99} {
				reporter.Tick(at, false)
			}
			reporter.Flush()
			So(server.calls, ShouldHaveLength, 1)
		})

		Convey("Seeking back to a reported second reports it again after a rebind", func() {
			reporter.Tick(30, false)
			reporter.Bind(descriptor)
			reporter.Tick(30, false)
			reporter.Flush()
			So(server.calls, ShouldHaveLength, 2)
		})

		Convey("Reports carry the session, levels and pause state", func() {
			reporter.Report(12.5, true)
			reporter.Flush()

			report := server.calls[0].report
			So(report.ItemID, ShouldEqual, "item")
			So(report.PlaySessionID, ShouldEqual, "ps")
			So(report.MediaSourceID, ShouldEqual, "ms")
			So(report.PlayMethod, ShouldEqual, "Transcode")
			So(report.IsPaused, ShouldBeTrue)
			So(report.IsMuted, ShouldBeTrue)
			So(report.VolumeLevel, ShouldEqual, 40)
			So(report.PositionTicks, ShouldEqual, 125_000_000)
		})

		Convey("Start and stop hit their endpoints", func() {
			reporter.Start(0)
			reporter.Flush()
			reporter.StopSync(61)
			So(server.kinds(), ShouldResemble, []string{"start", "stop"})
			So(server.calls[1].report.PositionTicks, ShouldEqual, 610_000_000)
		})

		Convey("Failures are swallowed", func() {
			server.err = errors.New("offline")
			So(func() { reporter.StopSync(1) }, ShouldNotPanic)
			So(server.calls, ShouldHaveLength, 1)
		})

		Convey("An unbound reporter sends nothing", func() {
			reporter.Unbind()
			reporter.Start(0)
			So(reporter.Tick(10, false), ShouldBeFalse)
			reporter.StopSync(10)
			So(server.calls, ShouldBeEmpty)
		})

		Convey("The interval can be changed", func() {
			reporter.WithInterval(5)
			So(reporter.Tick(5, false), ShouldBeTrue)
			reporter.Flush()
		})
	})
}
