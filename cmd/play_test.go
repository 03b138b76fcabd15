package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/reelix-cli/reelix/config"
	"github.com/reelix-cli/reelix/history"
	"github.com/reelix-cli/reelix/internal/cache"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/queue"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func intp(n int) *int { return &n }

type fakeLibrary struct {
	items    map[string]*mediaserver.Item
	episodes map[string][]*mediaserver.Item
	found    []*mediaserver.Item
	resume   []*mediaserver.Item
}

func (l *fakeLibrary) Item(_ context.Context, id string) (*mediaserver.Item, error) {
	item, ok := l.items[id]
	if !ok {
		return nil, mediaserver.ErrNotFound
	}
	return item, nil
}

func (l *fakeLibrary) Episodes(_ context.Context, seriesID string) ([]*mediaserver.Item, error) {
	return l.episodes[seriesID], nil
}

func (l *fakeLibrary) Search(context.Context, string, int) ([]*mediaserver.Item, error) {
	return l.found, nil
}

func (l *fakeLibrary) Resume(context.Context, int) ([]*mediaserver.Item, error) {
	return l.resume, nil
}

func newLibrary() *fakeLibrary {
	episode := func(id string, n int, played bool) *mediaserver.Item {
		return &mediaserver.Item{
			ID: id, Name: "Part " + id, Type: mediaserver.TypeEpisode,
			SeriesID: "show", SeriesName: "Show", Season: intp(1), Episode: intp(n),
			UserData: &mediaserver.UserData{Played: played},
		}
	}
	film := &mediaserver.Item{
		ID: "film", Name: "Film", Type: mediaserver.TypeMovie,
		UserData: &mediaserver.UserData{PlaybackPositionTicks: 3_000_000_000},
	}
	return &fakeLibrary{
		items: map[string]*mediaserver.Item{
			"film":  film,
			"clip":  {ID: "clip", Name: "Clip", Type: mediaserver.TypeVideo},
			"show":  {ID: "show", Name: "Show", Type: mediaserver.TypeSeries},
			"empty": {ID: "empty", Name: "Empty", Type: mediaserver.TypeSeries},
		},
		episodes: map[string][]*mediaserver.Item{
			"show": {episode("e1", 1, true), episode("e2", 2, false), episode("e3", 3, false)},
		},
		found:  []*mediaserver.Item{film},
		resume: []*mediaserver.Item{film},
	}
}

func ids(items []*queue.Item) []string {
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = item.ID
	}
	return result
}

func TestBuildQueue(t *testing.T) {
	Convey("Given a library", t, func() {
		lib := newLibrary()
		ctx := context.Background()

		Convey("Items are queued in order with their server positions", func() {
			items, index, err := buildQueue(ctx, lib, playRequest{IDs: []string{"film", "clip"}})
			So(err, ShouldBeNil)
			So(ids(items), ShouldResemble, []string{"film", "clip"})
			So(index, ShouldEqual, 0)
			So(items[0].ResumeTicks, ShouldEqual, 3_000_000_000)
		})

		Convey("A series expands to its episodes and starts at the first unplayed one", func() {
			types := cache.New[string]()
			items, index, err := buildQueue(ctx, lib, playRequest{IDs: []string{"show"}, Types: types})
			So(err, ShouldBeNil)
			So(ids(items), ShouldResemble, []string{"e1", "e2", "e3"})
			So(index, ShouldEqual, 1)
			So(items[1].Subtitle, ShouldEqual, "S1:E2 - Part e2")
			So(types.Get("e2").OrEmpty(), ShouldEqual, mediaserver.TypeEpisode)
		})

		Convey("An explicit start index wins", func() {
			_, index, err := buildQueue(ctx, lib, playRequest{IDs: []string{"show"}, Index: mo.Some(2)})
			So(err, ShouldBeNil)
			So(index, ShouldEqual, 2)
		})

		Convey("A start index past the queue fails", func() {
			_, _, err := buildQueue(ctx, lib, playRequest{IDs: []string{"film"}, Index: mo.Some(3)})
			So(errors.Is(err, queue.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("A series without episodes has nothing to play", func() {
			_, _, err := buildQueue(ctx, lib, playRequest{IDs: []string{"empty"}})
			So(errors.Is(err, errNothingToPlay), ShouldBeTrue)
		})

		Convey("An unknown id fails", func() {
			_, _, err := buildQueue(ctx, lib, playRequest{IDs: []string{"missing"}})
			So(errors.Is(err, mediaserver.ErrNotFound), ShouldBeTrue)
		})

		Convey("A search plays the picked result", func() {
			items, _, err := buildQueue(ctx, lib, playRequest{Query: "film"})
			So(err, ShouldBeNil)
			So(ids(items), ShouldResemble, []string{"film"})
		})

		Convey("A search without results has nothing to play", func() {
			lib.found = nil
			_, _, err := buildQueue(ctx, lib, playRequest{Query: "nothing"})
			So(errors.Is(err, errNothingToPlay), ShouldBeTrue)
		})

		Convey("Continue watching uses the pick function", func() {
			picked := 0
			items, _, err := buildQueue(ctx, lib, playRequest{
				Resume: true,
				Pick: func(items []*mediaserver.Item) (*mediaserver.Item, error) {
					picked = len(items)
					return items[0], nil
				},
			})
			So(err, ShouldBeNil)
			So(picked, ShouldEqual, 1)
			So(ids(items), ShouldResemble, []string{"film"})
		})

		Convey("Saved positions fill in items without a server position", func() {
			saved := map[string]*history.Entry{
				"clip": {ItemID: "clip", PositionTicks: 420_000_000},
				"e1":   {ItemID: "e1", PositionTicks: 10, Finished: true},
			}
			items, _, err := buildQueue(ctx, lib, playRequest{IDs: []string{"clip", "show"}, Saved: saved})
			So(err, ShouldBeNil)
			So(items[0].ResumeTicks, ShouldEqual, 420_000_000)
			So(items[1].ResumeTicks, ShouldEqual, 0)
		})

		Convey("From start clears every position", func() {
			items, _, err := buildQueue(ctx, lib, playRequest{IDs: []string{"film"}, FromStart: true})
			So(err, ShouldBeNil)
			So(items[0].ResumeTicks, ShouldEqual, 0)
		})

		Convey("The latest history entry comes first", func() {
			entry := &history.Entry{ItemID: "old", Title: "Old", PositionTicks: 50}
			items, index, err := buildQueue(ctx, lib, playRequest{Latest: mo.Some(entry), IDs: []string{"film"}})
			So(err, ShouldBeNil)
			So(ids(items), ShouldResemble, []string{"old", "film"})
			So(index, ShouldEqual, 0)
			So(items[0].ResumeTicks, ShouldEqual, 50)
		})

		Convey("URLs are played directly", func() {
			items, _, err := buildQueue(ctx, lib, playRequest{URLs: []string{"https://cdn.example/shows/pilot.m3u8?token=1"}})
			So(err, ShouldBeNil)
			So(items[0].URL, ShouldEqual, "https://cdn.example/shows/pilot.m3u8?token=1")
			So(items[0].Title, ShouldEqual, "pilot")
		})

		Convey("An empty request has nothing to play", func() {
			_, _, err := buildQueue(ctx, lib, playRequest{})
			So(errors.Is(err, errNothingToPlay), ShouldBeTrue)
		})
	})
}

func TestParseValue(t *testing.T) {
	Convey("Given config keys", t, func() {
		So(config.Default, ShouldContainKey, key.PlaybackVolume)

		v, err := parseValue(key.PlaybackVolume, []string{"80"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 80)

		v, err = parseValue(key.PlaybackAutoplay, []string{"false"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, false)

		v, err = parseValue(key.PlayerArgs, []string{"--hwdec=auto", "--fs"})
		So(err, ShouldBeNil)
		So(v, ShouldResemble, []string{"--hwdec=auto", "--fs"})

		_, err = parseValue(key.PlaybackRepeat, []string{"twice"})
		So(err, ShouldNotBeNil)

		_, err = parseValue(key.PlaybackVolume, []string{"loud"})
		So(err, ShouldNotBeNil)

		_, err = parseValue("playback.volumes", []string{"1"})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, key.PlaybackVolume)
	})
}

func TestScriptName(t *testing.T) {
	Convey("Given an install URL", t, func() {
		So(scriptName("https://example.org/hooks/cdn-proxy.lua"), ShouldEqual, "cdn-proxy")
		So(scriptName("https://example.org/raw/my hook.lua?x=1"), ShouldEqual, "my_hook")
	})
}

func TestInstallHint(t *testing.T) {
	Convey("Given a platform", t, func() {
		So(installHint("mpv", "darwin"), ShouldEqual, "brew install mpv")
		So(installHint("mpv", "android"), ShouldEqual, "pkg install mpv")
		So(installHint("mpv", "plan9"), ShouldBeEmpty)
		So(missingDependency("mpv", "linux"), ShouldContainSubstring, "sudo apt install mpv")
	})
}
