package log

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFacade(t *testing.T) {
	Convey("Given the log facade", t, func() {
		var buf bytes.Buffer

		Convey("Nothing is written while disabled", func() {
			Configure(&buf, false, "debug")
			Disable()
			Info("hidden")
			So(buf.Len(), ShouldEqual, 0)
			So(Enabled(), ShouldBeFalse)
		})

		Convey("When configured", func() {
			Configure(&buf, false, "warn")
			defer Disable()

			Convey("Lines at or above the level are written", func() {
				Warnf("report failed: %s", "timeout")
				So(buf.String(), ShouldContainSubstring, "report failed: timeout")
			})

			Convey("Lines below the level are dropped", func() {
				Debug("chatty")
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("An unknown level falls back to info", func() {
			Configure(&buf, true, "loud")
			defer Disable()
			Info("hello")
			So(buf.String(), ShouldContainSubstring, `"msg":"hello"`)
		})
	})
}
