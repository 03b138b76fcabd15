package cache

import (
	"sync"
	"testing"

	"github.com/reelix-cli/reelix/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		s := New[string]()

		Convey("Missing keys are absent", func() {
			So(s.Get("x").IsAbsent(), ShouldBeTrue)
		})

		Convey("The last write wins", func() {
			So(s.Set("x", "Episode"), ShouldBeNil)
			So(s.Set("x", "Movie"), ShouldBeNil)
			So(s.Get("x").MustGet(), ShouldEqual, "Movie")
			So(s.Len(), ShouldEqual, 1)
		})

		Convey("Concurrent writers are safe", func() {
			var wg sync.WaitGroup
			for _, key := range []string{"a", "b", "c", "d"} {
				wg.Add(1)
				go func(k string) {
					defer wg.Done()
					_ = s.Set(k, k)
				}(key)
			}
			wg.Wait()
			So(s.Len(), ShouldEqual, 4)
		})
	})

	Convey("Given a persistent store", t, func() {
		path := "/cache/item_types.json"
		s := Persistent[[]int](path)
		So(s.Clear(), ShouldBeNil)

		Convey("Entries survive reopening", func() {
			So(s.Set("item", []int{1, 2}), ShouldBeNil)

			reopened := Persistent[[]int](path)
			So(reopened.Get("item").MustGet(), ShouldResemble, []int{1, 2})
		})

		Convey("Clear removes persisted entries", func() {
			So(s.Set("item", []int{1}), ShouldBeNil)
			So(s.Clear(), ShouldBeNil)

			reopened := Persistent[[]int](path)
			So(reopened.Len(), ShouldEqual, 0)
		})
	})
}
