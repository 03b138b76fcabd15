package episode

import (
	"context"
	"errors"
	"testing"

	"github.com/reelix-cli/reelix/internal/cache"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/queue"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeServer struct {
	items        map[string]*mediaserver.Item
	episodes     map[string][]*mediaserver.Item
	err          error
	itemCalls    int
	episodeCalls int
}

func (f *fakeServer) Item(_ context.Context, id string) (*mediaserver.Item, error) {
	f.itemCalls++
	if f.err != nil {
		return nil, f.err
	}
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, mediaserver.ErrNotFound
}

func (f *fakeServer) Episodes(_ context.Context, seriesID string) ([]*mediaserver.Item, error) {
	f.episodeCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.episodes[seriesID], nil
}

func number(n int) *int { return &n }

func TestParseSubtitle(t *testing.T) {
	Convey("Given display subtitles", t, func() {
		for _, tc := range []struct {
			subtitle        string
			season, episode int
			ok              bool
		}{
			{"S1:E2 - Pilot", 1, 2, true},
			{"S01E12", 1, 12, true},
			{"s3.e4", 3, 4, true},
			{"Season 2 Episode 7", 2, 7, true},
			{"Season 2, Episode 7", 2, 7, true},
			{"Director's Cut", 0, 0, false},
			{"", 0, 0, false},
		} {
			season, episode, ok := ParseSubtitle(tc.subtitle)
			So(ok, ShouldEqual, tc.ok)
			So(season, ShouldEqual, tc.season)
			So(episode, ShouldEqual, tc.episode)
		}
	})
}

func TestClassify(t *testing.T) {
	Convey("Given a resolver", t, func() {
		server := &fakeServer{items: map[string]*mediaserver.Item{
			"movie": {ID: "movie", Type: mediaserver.TypeMovie},
			"ep":    {ID: "ep", Type: mediaserver.TypeEpisode},
		}}
		types := cache.New[string]()
		resolver := New(server, types)

		Convey("A season/episode subtitle classifies without the server", func() {
			item := &queue.Item{ID: "x", Subtitle: "S1:E1 - Start"}
			So(resolver.Classify(item), ShouldEqual, Episode)
			So(types.Get("x").MustGet(), ShouldEqual, mediaserver.TypeEpisode)
			So(server.itemCalls, ShouldEqual, 0)
		})

		Convey("Unseen items are unknown until looked up", func() {
			item := &queue.Item{ID: "movie"}
			So(resolver.Classify(item), ShouldEqual, Unknown)

			So(resolver.Lookup(context.Background(), item), ShouldEqual, Other)
			So(resolver.Classify(item), ShouldEqual, Other)
			So(server.itemCalls, ShouldEqual, 1)
		})

		Convey("Cached episodes classify as episodes", func() {
			item := &queue.Item{ID: "ep"}
			So(resolver.Lookup(context.Background(), item), ShouldEqual, Episode)
			So(resolver.Lookup(context.Background(), item), ShouldEqual, Episode)
			So(server.itemCalls, ShouldEqual, 1)
		})

		Convey("A failed lookup stays unknown", func() {
			server.err = errors.New("offline")
			So(resolver.Lookup(context.Background(), &queue.Item{ID: "ep"}), ShouldEqual, Unknown)
			So(types.Len(), ShouldEqual, 0)
		})
	})
}

func TestSibling(t *testing.T) {
	Convey("Given a series of three episodes", t, func() {
		server := &fakeServer{
			items: map[string]*mediaserver.Item{
				"e2":     {ID: "e2", Type: mediaserver.TypeEpisode, SeriesID: "show"},
				"orphan": {ID: "orphan", Type: mediaserver.TypeEpisode},
			},
			episodes: map[string][]*mediaserver.Item{
				"show": {
					{ID: "e1", Name: "One", Season: number(1), Episode: number(1)},
					{ID: "e2", Name: "Two", Season: number(1), Episode: number(2)},
					{ID: "e3", Name: "Three", Season: number(1), Episode: number(3), SeriesName: "Show"},
				},
			},
		}
		types := cache.New[string]()
		resolver := New(server, types)
		ctx := context.Background()

		Convey("The next episode is returned as a queue item", func() {
			next := resolver.Sibling(ctx, &queue.Item{ID: "e2", SeriesID: "show"}, Forward)
			So(next.IsPresent(), ShouldBeTrue)
			So(next.MustGet().ID, ShouldEqual, "e3")
			So(next.MustGet().Subtitle, ShouldEqual, "S1:E3 - Three")
			So(next.MustGet().SeriesID, ShouldEqual, "show")
			So(types.Get("e3").MustGet(), ShouldEqual, mediaserver.TypeEpisode)
		})

		Convey("The previous episode is returned going backward", func() {
			prev := resolver.Sibling(ctx, &queue.Item{ID: "e2", SeriesID: "show"}, Backward)
			So(prev.MustGet().ID, ShouldEqual, "e1")
		})

		Convey("The series id is fetched when the item lacks it", func() {
			next := resolver.Sibling(ctx, &queue.Item{ID: "e2"}, Forward)
			So(next.MustGet().ID, ShouldEqual, "e3")
			So(server.itemCalls, ShouldEqual, 1)
		})

		Convey("The ends of the series yield none", func() {
			So(resolver.Sibling(ctx, &queue.Item{ID: "e3", SeriesID: "show"}, Forward).IsAbsent(), ShouldBeTrue)
			So(resolver.Sibling(ctx, &queue.Item{ID: "e1", SeriesID: "show"}, Backward).IsAbsent(), ShouldBeTrue)
		})

		Convey("Episodes listed out of order are sorted by season and episode", func() {
			server.episodes["show"] = []*mediaserver.Item{
				{ID: "s2e1", Name: "Return", Season: number(2), Episode: number(1)},
				{ID: "e3", Name: "Three", Season: number(1), Episode: number(3)},
				{ID: "e1", Name: "One", Season: number(1), Episode: number(1)},
				{ID: "e2", Name: "Two", Season: number(1), Episode: number(2)},
			}

			So(resolver.Sibling(ctx, &queue.Item{ID: "e2", SeriesID: "show"}, Forward).MustGet().ID, ShouldEqual, "e3")
			So(resolver.Sibling(ctx, &queue.Item{ID: "e3", SeriesID: "show"}, Forward).MustGet().ID, ShouldEqual, "s2e1")
			So(resolver.Sibling(ctx, &queue.Item{ID: "e1", SeriesID: "show"}, Backward).IsAbsent(), ShouldBeTrue)
			So(server.episodes["show"][0].ID, ShouldEqual, "s2e1")
		})

		Convey("Failures yield none", func() {
			So(resolver.Sibling(ctx, &queue.Item{ID: "orphan"}, Forward).IsAbsent(), ShouldBeTrue)
			So(resolver.Sibling(ctx, &queue.Item{ID: "ghost", SeriesID: "show"}, Forward).IsAbsent(), ShouldBeTrue)

			server.err = errors.New("offline")
			So(resolver.Sibling(ctx, &queue.Item{ID: "e2", SeriesID: "show"}, Forward).IsAbsent(), ShouldBeTrue)
		})
	})
}
