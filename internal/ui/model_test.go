package ui

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestModel(t *testing.T) {
	Convey("Given a notifier", t, func() {
		m := &Model{}

		Convey("Nothing is appended without a notification", func() {
			So(m.View("a\nb"), ShouldEqual, "a\nb")
		})

		Convey("A notification is shown and scheduled for removal", func() {
			cmd := m.Update(Notify("No further content")())
			So(cmd, ShouldNotBeNil)
			So(m.Current(), ShouldEqual, "No further content")
			So(m.View("a\nb"), ShouldStartWith, "a\nb  ")

			Convey("A clear right away keeps it", func() {
				m.Update(ClearNotificationMsg{})
				So(m.Current(), ShouldEqual, "No further content")
			})

			Convey("A clear after its lifetime removes it", func() {
				m.notifiedAt = time.Now().Add(-Lifetime)
				m.Update(ClearNotificationMsg{})
				So(m.Current(), ShouldBeEmpty)
			})
		})
	})
}
