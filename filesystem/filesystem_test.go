package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBackend(t *testing.T) {
	Convey("Given the filesystem backend", t, func() {
		Convey("It defaults to the OS filesystem", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("When switched to memory", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")

			Convey("GacheFs writes through to it", func() {
				var fs GacheFs
				So(fs.MkdirAll("/cache", os.ModePerm), ShouldBeNil)

				f, err := fs.OpenFile("/cache/x.json", os.O_CREATE|os.O_RDWR, 0o644)
				So(err, ShouldBeNil)
				_, err = f.Write([]byte("{}"))
				So(err, ShouldBeNil)
				So(f.Close(), ShouldBeNil)

				exists, err := API().Exists("/cache/x.json")
				So(err, ShouldBeNil)
				So(exists, ShouldBeTrue)
			})
		})
	})
}
