package history

import (
	"testing"
	"time"

	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/ticks"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given an item", t, func() {
		item := &queue.Item{ID: "item-1", Title: "Show", Subtitle: "S1:E2 - Pilot", SeriesID: "series"}
		defer func() { _ = Remove(item.ID) }()

		Convey("When saving its stop position", func() {
			err := Save(item, 600, 1200)
			So(err, ShouldBeNil)

			Convey("Then it can be resumed from there", func() {
				saved, err := Get()
				So(err, ShouldBeNil)
				entry := saved[item.ID]
				So(entry, ShouldNotBeNil)
				So(entry.Watched, ShouldEqual, 0.5)
				So(entry.Finished, ShouldBeFalse)
				So(entry.Item().ResumeTicks, ShouldEqual, ticks.FromSeconds(600))
				So(entry.Item().SeriesID, ShouldEqual, "series")
			})

			Convey("And saving an earlier position keeps the watched fraction", func() {
				So(Save(item, 60, 1200), ShouldBeNil)
				saved, _ := Get()
				So(saved[item.ID].Watched, ShouldEqual, 0.5)
				So(saved[item.ID].PositionTicks, ShouldEqual, ticks.FromSeconds(60))
			})
		})

		Convey("An item watched to the end is finished", func() {
			So(Save(item, 1190, 1200), ShouldBeNil)
			saved, _ := Get()
			So(saved[item.ID].Finished, ShouldBeTrue)
			So(saved[item.ID].PositionTicks, ShouldEqual, 0)
			So(Latest().IsAbsent(), ShouldBeTrue)
		})
	})

	Convey("Latest is the most recent unfinished entry", t, func() {
		first := &queue.Item{ID: "first", Title: "First"}
		second := &queue.Item{ID: "second", Title: "Second"}
		defer func() {
			_ = Remove(first.ID)
			_ = Remove(second.ID)
		}()

		So(Save(first, 10, 100), ShouldBeNil)
		time.Sleep(10 * time.Millisecond)
		So(Save(second, 10, 100), ShouldBeNil)

		latest, ok := Latest().Get()
		So(ok, ShouldBeTrue)
		So(latest.ItemID, ShouldEqual, "second")
	})

	Convey("Direct stream items are not recorded", t, func() {
		Recorder{}.Record(&queue.Item{ID: "direct", URL: "https://media.example/direct.mkv"}, 10, 100)
		saved, err := Get()
		So(err, ShouldBeNil)
		So(saved, ShouldNotContainKey, "direct")
	})
}
