package script

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

const dir = "/scripts"

func write(name, contents string) string {
	path := filepath.Join(dir, name)
	forget(path)
	So(filesystem.API().MkdirAll(dir, os.ModePerm), ShouldBeNil)
	So(filesystem.API().WriteFile(path, []byte(contents), os.ModePerm), ShouldBeNil)
	return path
}

func TestHook(t *testing.T) {
	item := &queue.Item{ID: "item-1", Title: "Pilot", ResumeTicks: 600_000_000}

	Convey("Given a hook appending the item title", t, func() {
		path := write("tag.lua", `
function ResolveStream(url, item)
  if item.id == "skip" then
    return nil
  end
  return url .. "&title=" .. item.title .. "&at=" .. item.resume_seconds
end
`)
		hook, err := Load(path)
		So(err, ShouldBeNil)
		defer hook.Close()

		So(hook.Name(), ShouldEqual, "tag")

		Convey("The URL is rewritten", func() {
			rewritten, changed, err := hook.Resolve(context.Background(), item, "https://media.example/a.mkv?k=1")
			So(err, ShouldBeNil)
			So(changed, ShouldBeTrue)
			So(rewritten, ShouldEqual, "https://media.example/a.mkv?k=1&title=Pilot&at=60")
		})

		Convey("Returning nil keeps the URL", func() {
			rewritten, changed, err := hook.Resolve(context.Background(), &queue.Item{ID: "skip"}, "https://media.example/a.mkv")
			So(err, ShouldBeNil)
			So(changed, ShouldBeFalse)
			So(rewritten, ShouldEqual, "https://media.example/a.mkv")
		})
	})

	Convey("A script without ResolveStream is refused", t, func() {
		_, err := Load(write("empty.lua", `local x = 1`))
		So(err, ShouldNotBeNil)
	})

	Convey("A script that does not compile is refused", t, func() {
		_, err := Load(write("broken.lua", `function (`))
		So(err, ShouldNotBeNil)
	})

	Convey("A failing hook reports its error", t, func() {
		hook, err := Load(write("fail.lua", `function ResolveStream(url, item) error("no token") end`))
		So(err, ShouldBeNil)
		defer hook.Close()

		_, _, err = hook.Resolve(context.Background(), item, "https://media.example/a.mkv")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "no token")
	})
}

func TestChain(t *testing.T) {
	Convey("Given a directory of hooks", t, func() {
		So(filesystem.API().RemoveAll(dir), ShouldBeNil)
		write("01-proxy.lua", `function ResolveStream(url, item) return "https://proxy.example/?u=" .. url end`)
		write("02-token.lua", `function ResolveStream(url, item) return url .. "&token=t" end`)
		write("03-bad.lua", `function (`)
		write("notes.txt", `not a script`)

		chain, err := LoadDir(dir)
		So(err, ShouldBeNil)
		defer chain.Close()

		Convey("Broken scripts are skipped", func() {
			So(chain.Len(), ShouldEqual, 2)
		})

		Convey("Hooks run in file name order", func() {
			rewritten, err := chain.Rewrite(context.Background(), &queue.Item{ID: "a"}, "https://media.example/a.mkv")
			So(err, ShouldBeNil)
			So(rewritten, ShouldEqual, "https://proxy.example/?u=https://media.example/a.mkv&token=t")
		})
	})

	Convey("An empty chain leaves the URL alone", t, func() {
		rewritten, err := NewChain().Rewrite(context.Background(), &queue.Item{ID: "a"}, "https://media.example/a.mkv")
		So(err, ShouldBeNil)
		So(rewritten, ShouldEqual, "https://media.example/a.mkv")
	})
}

func TestHTTP(t *testing.T) {
	Convey("Given a token service", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Key") != "secret" {
				http.Error(w, "denied", http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte("t0k3n"))
		}))
		defer server.Close()

		path := write("token.lua", `
function ResolveStream(url, item)
  local body, status = reelix_http.get("`+server.URL+`", { ["X-Key"] = "secret" })
  if status ~= 200 then
    error("status " .. status)
  end
  return url .. "?token=" .. body
end
`)
		hook, err := Load(path)
		So(err, ShouldBeNil)
		defer hook.Close()

		rewritten, changed, err := hook.Resolve(context.Background(), &queue.Item{ID: "a"}, "https://media.example/a.mkv")
		So(err, ShouldBeNil)
		So(changed, ShouldBeTrue)
		So(rewritten, ShouldEqual, "https://media.example/a.mkv?token=t0k3n")
	})
}

func TestInstall(t *testing.T) {
	Convey("Given a script server", t, func() {
		contents := `function ResolveStream(url, item) return url end`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/broken.lua" {
				_, _ = w.Write([]byte("function ("))
				return
			}
			_, _ = w.Write([]byte(contents))
		}))
		defer server.Close()

		So(filesystem.API().MkdirAll(dir, os.ModePerm), ShouldBeNil)
		target := filepath.Join(dir, "installed.lua")
		_ = filesystem.API().Remove(target)

		Convey("The first install writes the file", func() {
			updated, err := Install(context.Background(), server.URL+"/hook.lua", target)
			So(err, ShouldBeNil)
			So(updated, ShouldBeTrue)

			Convey("And installing the same contents again changes nothing", func() {
				updated, err := Install(context.Background(), server.URL+"/hook.lua", target)
				So(err, ShouldBeNil)
				So(updated, ShouldBeFalse)
			})
		})

		Convey("A script that does not compile is not installed", func() {
			_, err := Install(context.Background(), server.URL+"/broken.lua", target)
			So(err, ShouldNotBeNil)

			exists, _ := filesystem.API().Exists(target)
			So(exists, ShouldBeFalse)
		})
	})
}
