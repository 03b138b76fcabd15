package ticks

import (
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConversion(t *testing.T) {
	Convey("Given the tick unit", t, func() {
		Convey("One second is ten million ticks", func() {
			So(FromSeconds(1), ShouldEqual, 10_000_000)
			So(ToSeconds(25_000_000), ShouldEqual, 2.5)
		})

		Convey("Seconds are floored to whole ticks", func() {
			So(FromSeconds(0.00000019), ShouldEqual, 1)
			So(FromSeconds(-0.00000001), ShouldEqual, -1)
		})

		Convey("One tick is 100ns", func() {
			So(ToDuration(1), ShouldEqual, 100*time.Nanosecond)
			So(FromDuration(90*time.Second), ShouldEqual, 900_000_000)
			So(ToDuration(FromDuration(time.Hour)), ShouldEqual, time.Hour)
		})
	})
}

func TestFormat(t *testing.T) {
	Convey("Given playback positions", t, func() {
		So(Format(0), ShouldEqual, "0:00")
		So(Format(65.9), ShouldEqual, "1:05")
		So(Format(3725), ShouldEqual, "1:02:05")
		So(Format(-3), ShouldEqual, "0:00")
		So(Format(math.NaN()), ShouldEqual, "0:00")
	})
}
