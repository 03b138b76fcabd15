package open

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	const page = "https://media.example/web/#/details?id=1&serverId=2"

	Convey("The default handler depends on the platform", t, func() {
		cmd, ok := command("linux", page, "")
		So(ok, ShouldBeTrue)
		So(cmd.Args, ShouldResemble, []string{"xdg-open", page})

		cmd, ok = command("darwin", page, "")
		So(ok, ShouldBeTrue)
		So(cmd.Args, ShouldResemble, []string{"open", page})

		_, ok = command("plan9", page, "")
		So(ok, ShouldBeFalse)
	})

	Convey("A named application receives the input", t, func() {
		cmd, ok := command("darwin", page, "Firefox")
		So(ok, ShouldBeTrue)
		So(cmd.Args, ShouldResemble, []string{"open", "-a", "Firefox", page})

		cmd, ok = command("windows", page, "firefox")
		So(ok, ShouldBeTrue)
		So(cmd.Args[len(cmd.Args)-1], ShouldEqual, "https://media.example/web/#/details?id=1^&serverId=2")
	})
}
