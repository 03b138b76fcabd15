package mediaserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

type recorded struct {
	auth   string
	method string
	path   string
	body   map[string]any
}

func newTestServer(calls *[]recorded) *httptest.Server {
	mux := http.NewServeMux()

	record := func(r *http.Request) {
		rec := recorded{auth: r.Header.Get("X-Emby-Authorization"), method: r.Method, path: r.URL.Path}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		*calls = append(*calls, rec)
	}

	mux.HandleFunc("/Users/u1/Items/ep2", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`{"Id":"ep2","Name":"Second","Type":"Episode","SeriesId":"s1",
			"ParentIndexNumber":1,"IndexNumber":2,
			"Chapters":[{"StartPositionTicks":0,"Name":"Intro"},{"StartPositionTicks":900000000,"Name":"Part 1"}],
			"UserData":{"PlaybackPositionTicks":120000000}}`))
	})
	mux.HandleFunc("/Users/u1/Items/missing", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/Shows/s1/Episodes", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`{"Items":[
			{"Id":"s2e1","ParentIndexNumber":2,"IndexNumber":1},
			{"Id":"special"},
			{"Id":"ep2","ParentIndexNumber":1,"IndexNumber":2},
			{"Id":"ep1","ParentIndexNumber":1,"IndexNumber":1}
		],"TotalRecordCount":4}`))
	})
	mux.HandleFunc("/Items/ep2/PlaybackInfo", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`{"PlaySessionId":"ps1","MediaSources":[{"Id":"ms1","Container":"mkv",
			"TranscodingUrl":"/videos/ep2/master.m3u8?PlaySessionId=ps1",
			"MediaStreams":[
				{"Index":0,"Type":"Video"},
				{"Index":1,"Type":"Audio","DisplayTitle":"English","Language":"eng","IsDefault":true},
				{"Index":2,"Type":"Subtitle","DisplayTitle":"English SRT","DeliveryMethod":"External","DeliveryUrl":"/Videos/ep2/ms1/Subtitles/2/Stream.srt"}
			]}]}`))
	})
	mux.HandleFunc("/Items/movie/PlaybackInfo", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`{"PlaySessionId":"ps2","MediaSources":[{"Id":"ms2","Container":"mp4","MediaStreams":[]}]}`))
	})
	mux.HandleFunc("/Sessions/Playing/Progress", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/Sessions/Playing/Stopped", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/Users/AuthenticateByName", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`{"AccessToken":"tok","User":{"Id":"u1","Name":"alice"}}`))
	})

	return httptest.NewServer(mux)
}

func TestClient(t *testing.T) {
	Convey("Given a media server", t, func() {
		var calls []recorded
		server := newTestServer(&calls)
		defer server.Close()

		client := New(server.URL+"/", "u1", "secret", "dev-1")
		client.HTTP = server.Client()
		ctx := context.Background()

		Convey("Requests carry the authorization header", func() {
			_, err := client.Item(ctx, "ep2")
			So(err, ShouldBeNil)
			So(calls[0].auth, ShouldStartWith, "MediaBrowser ")
			So(calls[0].auth, ShouldContainSubstring, `DeviceId="dev-1"`)
			So(calls[0].auth, ShouldContainSubstring, `Token="secret"`)
		})

		Convey("Item decodes series numbering, chapters and resume position", func() {
			item, err := client.Item(ctx, "ep2")
			So(err, ShouldBeNil)
			So(item.SeriesID, ShouldEqual, "s1")
			So(*item.Season, ShouldEqual, 1)
			So(*item.Episode, ShouldEqual, 2)
			So(item.Chapters, ShouldHaveLength, 2)
			So(item.ResumeTicks(), ShouldEqual, 120000000)
		})

		Convey("A missing item is ErrNotFound", func() {
			_, err := client.Item(ctx, "missing")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Episodes come back in (season, episode) order", func() {
			items, err := client.Episodes(ctx, "s1")
			So(err, ShouldBeNil)
			ids := lo.Map(items, func(i *Item, _ int) string { return i.ID })
			So(ids, ShouldResemble, []string{"ep1", "ep2", "s2e1", "special"})
		})

		Convey("PlaybackInfo prefers the transcoding URL", func() {
			sub := -1
			d, err := client.PlaybackInfo(ctx, PlaybackRequest{ItemID: "ep2", ResumeTicks: 50, MaxBitrate: 8_000_000, Subtitle: &sub})
			So(err, ShouldBeNil)
			So(d.StreamURL, ShouldEqual, server.URL+"/videos/ep2/master.m3u8?PlaySessionId=ps1")
			So(d.Transcoding, ShouldBeTrue)
			So(d.PlaySessionID, ShouldEqual, "ps1")
			So(d.MediaSourceID, ShouldEqual, "ms1")
			So(d.Streams[2].DeliveryURL, ShouldEqual, server.URL+"/Videos/ep2/ms1/Subtitles/2/Stream.srt")

			body := calls[0].body
			So(body["StartTimeTicks"], ShouldEqual, 50)
			So(body["SubtitleStreamIndex"], ShouldEqual, -1)
			So(body["MaxStreamingBitrate"], ShouldEqual, 8_000_000)
			_, hasAudio := body["AudioStreamIndex"]
			So(hasAudio, ShouldBeFalse)
		})

		Convey("PlaybackInfo falls back to the static stream", func() {
			d, err := client.PlaybackInfo(ctx, PlaybackRequest{ItemID: "movie"})
			So(err, ShouldBeNil)
			So(d.Transcoding, ShouldBeFalse)
			So(d.StreamURL, ShouldStartWith, server.URL+"/Videos/movie/stream?")
			So(d.StreamURL, ShouldContainSubstring, "static=true")
			So(d.StreamURL, ShouldContainSubstring, "MediaSourceId=ms2")
			So(d.PlayMethod(), ShouldEqual, "DirectStream")
		})

		Convey("Reports are posted to the session endpoints", func() {
			err := client.ReportProgress(ctx, Report{ItemID: "ep2", PlaySessionID: "ps1", PositionTicks: 100, IsPaused: true, VolumeLevel: 80})
			So(err, ShouldBeNil)
			So(calls[0].path, ShouldEqual, "/Sessions/Playing/Progress")
			So(calls[0].body["IsPaused"], ShouldEqual, true)
			So(calls[0].body["VolumeLevel"], ShouldEqual, 80)
		})

		Convey("Unauthorized responses map to ErrNotAuthenticated", func() {
			err := client.ReportStop(ctx, Report{ItemID: "ep2"})
			So(errors.Is(err, ErrNotAuthenticated), ShouldBeTrue)
		})

		Convey("Signing in adopts the token and user id", func() {
			client.Token = ""
			auth, err := client.AuthenticateByName(ctx, "alice", "pw")
			So(err, ShouldBeNil)
			So(auth.User.Name, ShouldEqual, "alice")
			So(client.Token, ShouldEqual, "tok")
			So(client.UserID, ShouldEqual, "u1")
			So(calls[0].body["Username"], ShouldEqual, "alice")
		})
	})
}

func TestFindClosest(t *testing.T) {
	Convey("Given search results", t, func() {
		items := []*Item{
			{ID: "1", Name: "The Expanse"},
			{ID: "2", Name: "Expedition"},
			{ID: "3", Name: "Arcane"},
		}

		Convey("The closest fuzzy match wins", func() {
			So(FindClosest(items, "expanse").MustGet().ID, ShouldEqual, "1")
			So(FindClosest(items, "arcan").MustGet().ID, ShouldEqual, "3")
		})

		Convey("No results is None", func() {
			So(FindClosest(nil, "anything").IsAbsent(), ShouldBeTrue)
		})
	})
}
