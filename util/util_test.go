package util

import (
	"regexp"
	"testing"

	"github.com/reelix-cli/reelix/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeFilename(t *testing.T) {
	Convey("Given a script name taken from a URL", t, func() {
		So(SanitizeFilename("rewrite:cdn?.lua"), ShouldEqual, "rewrite_cdn_.lua")
		So(SanitizeFilename("my  hook.lua"), ShouldEqual, "my_hook.lua")
		So(SanitizeFilename("-hook-"), ShouldEqual, "hook")
	})
}

func TestQuantify(t *testing.T) {
	Convey("Given a count", t, func() {
		So(Quantify(1, "item", "items"), ShouldEqual, "1 item")
		So(Quantify(0, "item", "items"), ShouldEqual, "0 items")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Given a word", t, func() {
		So(Capitalize("audio"), ShouldEqual, "Audio")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestReGroups(t *testing.T) {
	Convey("Given a pattern with alternative groups", t, func() {
		re := regexp.MustCompile(`S(?P<season>\d+)E(?P<episode>\d+)|Episode (?P<other>\d+)`)

		groups := ReGroups(re, "S1E12")
		So(groups, ShouldResemble, map[string]string{"season": "1", "episode": "12"})

		So(ReGroups(re, "Episode 4"), ShouldResemble, map[string]string{"other": "4"})
		So(ReGroups(re, "Trailer"), ShouldBeEmpty)
	})
}

func TestFileStem(t *testing.T) {
	Convey("Given a script path", t, func() {
		So(FileStem("scripts/cdn.lua"), ShouldEqual, "cdn")
		So(FileStem("cdn"), ShouldEqual, "cdn")
	})
}

func TestMin(t *testing.T) {
	Convey("Given some numbers", t, func() {
		So(Min(4, 1, 9), ShouldEqual, 1)
		So(Min[int](), ShouldEqual, 0)
	})
}

func TestDelete(t *testing.T) {
	Convey("Given files in memory", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		So(fs.MkdirAll("/cache/chapters", 0o755), ShouldBeNil)
		So(fs.WriteFile("/cache/chapters/a.json", []byte("{}"), 0o644), ShouldBeNil)

		Convey("A directory is removed with its content", func() {
			So(Delete("/cache"), ShouldBeNil)
			exists, _ := fs.Exists("/cache/chapters/a.json")
			So(exists, ShouldBeFalse)
		})

		Convey("A missing path is an error", func() {
			So(Delete("/nowhere"), ShouldNotBeNil)
		})
	})
}

func TestStack(t *testing.T) {
	Convey("Given a stack", t, func() {
		var s Stack[string]
		s.Push("player")
		s.Push("queue")
		So(s.Len(), ShouldEqual, 2)
		So(s.Peek(), ShouldEqual, "queue")
		So(s.Pop(), ShouldEqual, "queue")
		So(s.Pop(), ShouldEqual, "player")
		So(s.Pop(), ShouldEqual, "")
	})
}
