package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reelix-cli/reelix/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCompare(t *testing.T) {
	Convey("Given two versions", t, func() {
		cases := []struct {
			a, b string
			want int
		}{
			{"1.0.0", "1.0.0", 0},
			{"v1.2.0", "1.1.9", 1},
			{"0.3.1", "0.10.0", -1},
			{"2.0.0-rc.1", "2.0.0", 0},
		}
		for _, c := range cases {
			got, err := Compare(c.a, c.b)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, c.want)
		}

		_, err := Compare("latest", "1.0.0")
		So(err, ShouldNotBeNil)
	})
}

func TestUpdateNotice(t *testing.T) {
	Convey("Given the running version", t, func() {
		Convey("A newer release is announced", func() {
			notice, ok := updateNotice("1.0.0", "0.3.1")
			So(ok, ShouldBeTrue)
			So(notice, ShouldContainSubstring, "releases/tag/v1.0.0")
		})
		Convey("The same or an older release is not", func() {
			_, ok := updateNotice("0.3.1", "0.3.1")
			So(ok, ShouldBeFalse)
			_, ok = updateNotice("garbage", "0.3.1")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestFetch(t *testing.T) {
	Convey("Given a release endpoint", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(`{"tag_name":"v1.4.2"}`))
		}))
		defer server.Close()

		Convey("The tag is returned without its prefix", func() {
			version, err := fetch(context.Background(), server.URL)
			So(err, ShouldBeNil)
			So(version, ShouldEqual, "1.4.2")
		})

		Convey("A failed lookup is an error", func() {
			_, err := fetch(context.Background(), server.URL+"/missing")
			So(err, ShouldNotBeNil)
		})
	})
}
