package tui

import (
	"strings"
	"testing"

	"github.com/reelix-cli/reelix/chapter"
	"github.com/reelix-cli/reelix/internal/ui"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/session"
	"github.com/reelix-cli/reelix/stream"
	"github.com/reelix-cli/reelix/track"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFraction(t *testing.T) {
	Convey("Given a playback position", t, func() {
		Convey("An unknown duration is empty", func() {
			So(fraction(10, 0), ShouldEqual, 0)
		})
		Convey("A position halfway is one half", func() {
			So(fraction(60, 120), ShouldEqual, 0.5)
		})
		Convey("A position past the end is full", func() {
			So(fraction(130, 120), ShouldEqual, 1)
		})
	})
}

func TestTimeline(t *testing.T) {
	Convey("Given current and total seconds", t, func() {
		So(timeline(75, 3720), ShouldEqual, "1:15 / 1:02:00")
		So(timeline(5, 0), ShouldEqual, "0:05 / --:--")
	})
}

func TestChapterLabel(t *testing.T) {
	Convey("Given chapter marks", t, func() {
		marks := []chapter.Mark{{Name: "Intro"}, {StartTicks: 900_000_000}}

		Convey("A named chapter shows its name and position", func() {
			So(chapterLabel(marks, 0), ShouldEqual, "Intro (1/2)")
		})
		Convey("An unnamed chapter is numbered", func() {
			So(chapterLabel(marks, 1), ShouldEqual, "Chapter 2 (2/2)")
		})
		Convey("No current chapter renders nothing", func() {
			So(chapterLabel(marks, -1), ShouldBeEmpty)
			So(chapterLabel(nil, 0), ShouldBeEmpty)
		})
	})
}

func TestTrackLabels(t *testing.T) {
	Convey("Given a catalog", t, func() {
		catalog := track.Catalog{
			Audio:    []track.Track{{Index: 1, Kind: track.Audio, Label: "English"}},
			Subtitle: []track.Track{{Index: 3, Kind: track.Subtitle, Label: "Signs"}},
		}

		Convey("The selected tracks are named", func() {
			selected := session.TrackSelection{Audio: 1, Subtitle: 3}
			So(audioLabel(catalog, selected), ShouldEqual, "English")
			So(subtitleLabel(catalog, selected), ShouldEqual, "Signs")
		})

		Convey("Subtitles off is shown as off", func() {
			selected := session.TrackSelection{Audio: 1, Subtitle: track.SubtitleOff}
			So(subtitleLabel(catalog, selected), ShouldContainSubstring, "off")
		})
	})
}

func TestRepeatLabel(t *testing.T) {
	Convey("Given a repeat mode", t, func() {
		So(repeatLabel(queue.RepeatOne), ShouldEndWith, "one")
		So(repeatLabel(queue.RepeatAll), ShouldEndWith, "all")
		So(repeatLabel(queue.RepeatNone), ShouldContainSubstring, "off")
	})
}

func TestBusyLabel(t *testing.T) {
	Convey("Given a busy snapshot", t, func() {
		So(busy(session.Snapshot{State: stream.Loading}), ShouldBeTrue)
		So(busy(session.Snapshot{State: stream.Playing}), ShouldBeFalse)
		So(busyLabel(session.Snapshot{State: stream.SwitchingTrack}), ShouldEqual, "Switching track")
		So(busyLabel(session.Snapshot{State: stream.Ended, Busy: true}), ShouldStartWith, "Looking")
	})
}

func TestOutcomeNotice(t *testing.T) {
	Convey("Given a queue outcome", t, func() {
		So(outcomeNotice(session.Advanced), ShouldBeNil)
		So(outcomeNotice(session.Exhausted), ShouldNotBeNil)
		notice, ok := outcomeNotice(session.Sibling).(ui.NotificationMsg)
		So(ok, ShouldBeTrue)
		So(strings.ToLower(string(notice)), ShouldContainSubstring, "episode")
	})
}
