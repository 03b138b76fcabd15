package inline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/samber/lo"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func intp(n int) *int { return &n }

type fakeServer struct {
	items    map[string]*mediaserver.Item
	episodes map[string][]*mediaserver.Item
	failInfo bool
	infos    []mediaserver.PlaybackRequest
}

func (s *fakeServer) Item(_ context.Context, id string) (*mediaserver.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return item, nil
}

func (s *fakeServer) Search(_ context.Context, term string, limit int) ([]*mediaserver.Item, error) {
	found := lo.Filter(lo.Values(s.items), func(i *mediaserver.Item, _ int) bool {
		return strings.Contains(strings.ToLower(i.Name), strings.ToLower(term))
	})
	mediaserver.SortEpisodes(found)
	return lo.Slice(found, 0, limit), nil
}

func (s *fakeServer) Episodes(_ context.Context, seriesID string) ([]*mediaserver.Item, error) {
	return s.episodes[seriesID], nil
}

func (s *fakeServer) PlaybackInfo(_ context.Context, req mediaserver.PlaybackRequest) (*mediaserver.Descriptor, error) {
	s.infos = append(s.infos, req)
	if s.failInfo {
		return nil, errors.New("no source")
	}
	return &mediaserver.Descriptor{
		ItemID:        req.ItemID,
		StreamURL:     "https://media.example/" + req.ItemID + ".mkv",
		PlaySessionID: "session-" + req.ItemID,
		Streams: []mediaserver.MediaStream{
			{Index: 1, Type: mediaserver.StreamAudio, DisplayTitle: "English", IsDefault: true},
			{Index: 2, Type: mediaserver.StreamSubtitle, DisplayTitle: "Signs", DeliveryMethod: mediaserver.DeliveryExternal},
		},
	}, nil
}

func library() *fakeServer {
	episode := func(id string, n int) *mediaserver.Item {
		return &mediaserver.Item{ID: id, Name: "Part " + id, Type: mediaserver.TypeEpisode, SeriesID: "show", SeriesName: "Show", Season: intp(1), Episode: intp(n)}
	}
	return &fakeServer{
		items: map[string]*mediaserver.Item{
			"film": {
				ID: "film", Name: "Film", Type: mediaserver.TypeMovie,
				Chapters: []mediaserver.Chapter{{StartPositionTicks: 600_000_000, Name: "Middle"}, {Name: "Start"}},
			},
			"show": {ID: "show", Name: "Show", Type: mediaserver.TypeSeries},
		},
		episodes: map[string][]*mediaserver.Item{
			"show": {episode("e1", 1), episode("e2", 2), episode("e3", 3)},
		},
	}
}

func TestWriteJson(t *testing.T) {
	Convey("Given no entries", t, func() {
		var buf bytes.Buffer
		So(writeJson(&buf, nil, "test"), ShouldBeNil)

		var output Output
		So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)
		So(output.Query, ShouldEqual, "test")
		So(output.Result, ShouldHaveLength, 0)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a library", t, func() {
		server := library()
		var buf bytes.Buffer
		options := &Options{Out: &buf, Server: server, Json: true}

		Convey("Items requested by id list their sorted chapters", func() {
			options.IDs = []string{"film"}
			So(Run(context.Background(), options), ShouldBeNil)

			var output Output
			So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)
			So(output.Result, ShouldHaveLength, 1)
			So(output.Result[0].Chapters, ShouldHaveLength, 2)
			So(output.Result[0].Chapters[0].Name, ShouldEqual, "Start")
			So(output.Result[0].Stream, ShouldBeNil)
			So(server.infos, ShouldBeEmpty)
		})

		Convey("Streams adds the descriptor and its tracks", func() {
			options.IDs = []string{"film"}
			options.Streams = true
			options.MaxBitrate = 8_000_000
			So(Run(context.Background(), options), ShouldBeNil)

			var output Output
			So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)
			So(output.Result[0].Stream.PlaySessionID, ShouldEqual, "session-film")
			So(output.Result[0].Tracks.Audio, ShouldHaveLength, 1)
			So(output.Result[0].Tracks.Subtitle, ShouldHaveLength, 1)
			So(server.infos[0].MaxBitrate, ShouldEqual, 8_000_000)
		})

		Convey("A failing descriptor keeps the item without streams", func() {
			options.IDs = []string{"film"}
			options.Streams = true
			server.failInfo = true
			So(Run(context.Background(), options), ShouldBeNil)

			var output Output
			So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)
			So(output.Result, ShouldHaveLength, 1)
			So(output.Result[0].Tracks, ShouldBeNil)
		})

		Convey("An unknown id fails", func() {
			options.IDs = []string{"missing"}
			So(Run(context.Background(), options), ShouldNotBeNil)
		})

		Convey("A searched series expands to its filtered episodes", func() {
			options.Query = "show"
			picker, err := ParseItemPicker("first", options.Query)
			So(err, ShouldBeNil)
			filter, err := ParseEpisodesFilter("1-2")
			So(err, ShouldBeNil)
			options.Picker = mo.Some(picker)
			options.Episodes = mo.Some(filter)
			options.Json = false

			So(Run(context.Background(), options), ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines, ShouldHaveLength, 2)
			So(lines[0], ShouldStartWith, "e2\tShow S1:E2")
			So(lines[1], ShouldStartWith, "e3\t")
		})
	})
}

func TestParseEpisodesFilter(t *testing.T) {
	Convey("Given episodes", t, func() {
		episodes := library().episodes["show"]
		apply := func(description string) []string {
			filter, err := ParseEpisodesFilter(description)
			So(err, ShouldBeNil)
			result, err := filter(episodes)
			So(err, ShouldBeNil)
			return lo.Map(result, func(e *mediaserver.Item, _ int) string { return e.ID })
		}

		So(apply("first"), ShouldResemble, []string{"e1"})
		So(apply("last"), ShouldResemble, []string{"e3"})
		So(apply("all"), ShouldHaveLength, 3)
		So(apply("1"), ShouldResemble, []string{"e2"})
		So(apply("9"), ShouldBeEmpty)
		So(apply("@e3@"), ShouldResemble, []string{"e3"})

		_, err := ParseEpisodesFilter("sometimes")
		So(err, ShouldNotBeNil)
	})
}

func TestParseItemPicker(t *testing.T) {
	Convey("Given search results", t, func() {
		items := []*mediaserver.Item{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}

		last, err := ParseItemPicker("last", "")
		So(err, ShouldBeNil)
		So(last(items).ID, ShouldEqual, "b")

		exact, err := ParseItemPicker("exact", "Alpha")
		So(err, ShouldBeNil)
		So(exact(items).ID, ShouldEqual, "a")

		index, err := ParseItemPicker("7", "")
		So(err, ShouldBeNil)
		So(index(items).ID, ShouldEqual, "b")

		_, err = ParseItemPicker("whichever", "")
		So(err, ShouldNotBeNil)
	})
}

func TestSchema(t *testing.T) {
	Convey("The schema describes the output", t, func() {
		data, err := json.Marshal(Schema())
		So(err, ShouldBeNil)
		So(string(data), ShouldContainSubstring, "result")
	})
}
