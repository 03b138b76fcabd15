package mediaserver

// Item kinds reported in Item.Type.
const (
	TypeEpisode = "Episode"
	TypeMovie   = "Movie"
	TypeSeries  = "Series"
	TypeSeason  = "Season"
	TypeVideo   = "Video"
)

// Stream kinds reported in MediaStream.Type.
const (
	StreamVideo    = "Video"
	StreamAudio    = "Audio"
	StreamSubtitle = "Subtitle"
)

// Delivery methods reported in MediaStream.DeliveryMethod.
const (
	DeliveryEmbed    = "Embed"
	DeliveryExternal = "External"
	DeliveryEncode   = "Encode"
	DeliveryHls      = "Hls"
	DeliveryDrop     = "Drop"
)

// Item is a library entry as returned by the item endpoints.
type Item struct {
	ID           string    `json:"Id"`
	Name         string    `json:"Name"`
	Type         string    `json:"Type"`
	SeriesID     string    `json:"SeriesId,omitempty"`
	SeriesName   string    `json:"SeriesName,omitempty"`
	Season       *int      `json:"ParentIndexNumber,omitempty"`
	Episode      *int      `json:"IndexNumber,omitempty"`
	RunTimeTicks int64     `json:"RunTimeTicks,omitempty"`
	Overview     string    `json:"Overview,omitempty"`
	Chapters     []Chapter `json:"Chapters,omitempty"`
	UserData     *UserData `json:"UserData,omitempty"`
}

// ResumeTicks returns the saved position of the item, or zero.
func (i *Item) ResumeTicks() int64 {
	if i.UserData == nil {
		return 0
	}
	return i.UserData.PlaybackPositionTicks
}

// UserData holds per-user state of an item.
type UserData struct {
	PlaybackPositionTicks int64 `json:"PlaybackPositionTicks"`
	Played                bool  `json:"Played"`
}

// Chapter is a chapter mark of an item.
type Chapter struct {
	StartPositionTicks int64  `json:"StartPositionTicks"`
	Name               string `json:"Name"`
}

// MediaStream describes one elementary stream of a media source.
type MediaStream struct {
	Index          int    `json:"Index"`
	Type           string `json:"Type"`
	DisplayTitle   string `json:"DisplayTitle,omitempty"`
	Language       string `json:"Language,omitempty"`
	Codec          string `json:"Codec,omitempty"`
	IsDefault      bool   `json:"IsDefault"`
	IsExternal     bool   `json:"IsExternal"`
	DeliveryMethod string `json:"DeliveryMethod,omitempty"`
	DeliveryURL    string `json:"DeliveryUrl,omitempty"`
}

// MediaSource is one playable version of an item.
type MediaSource struct {
	ID                   string        `json:"Id"`
	Container            string        `json:"Container,omitempty"`
	SupportsDirectStream bool          `json:"SupportsDirectStream"`
	SupportsTranscoding  bool          `json:"SupportsTranscoding"`
	TranscodingURL       string        `json:"TranscodingUrl,omitempty"`
	MediaStreams         []MediaStream `json:"MediaStreams"`
}

// Descriptor is the playback descriptor of one server-side playback session:
// the stream to load and the streams it carries.
type Descriptor struct {
	ItemID        string        `json:"itemId"`
	StreamURL     string        `json:"streamUrl"`
	PlaySessionID string        `json:"playSessionId"`
	MediaSourceID string        `json:"mediaSourceId"`
	Transcoding   bool          `json:"transcoding"`
	Streams       []MediaStream `json:"streams"`
}

// PlayMethod reports how the descriptor's stream is delivered.
func (d *Descriptor) PlayMethod() string {
	if d.Transcoding {
		return "Transcode"
	}
	return "DirectStream"
}

// PlaybackRequest asks the server for a new playback session.
type PlaybackRequest struct {
	ItemID      string
	ResumeTicks int64
	MaxBitrate  int
	Audio       *int
	Subtitle    *int
}

// Report is the body of the session start, progress and stop endpoints.
type Report struct {
	ItemID        string `json:"ItemId"`
	MediaSourceID string `json:"MediaSourceId,omitempty"`
	PlaySessionID string `json:"PlaySessionId"`
	PositionTicks int64  `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused"`
	IsMuted       bool   `json:"IsMuted"`
	VolumeLevel   int    `json:"VolumeLevel"`
	PlayMethod    string `json:"PlayMethod,omitempty"`
	CanSeek       bool   `json:"CanSeek"`
}

// Auth is the result of a successful sign-in.
type Auth struct {
	AccessToken string `json:"AccessToken"`
	User        struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	} `json:"User"`
}

type itemsResult struct {
	Items            []*Item `json:"Items"`
	TotalRecordCount int     `json:"TotalRecordCount"`
}

type playbackInfoBody struct {
	UserID              string        `json:"UserId"`
	MaxStreamingBitrate int           `json:"MaxStreamingBitrate,omitempty"`
	StartTimeTicks      int64         `json:"StartTimeTicks"`
	AudioStreamIndex    *int          `json:"AudioStreamIndex,omitempty"`
	SubtitleStreamIndex *int          `json:"SubtitleStreamIndex,omitempty"`
	EnableDirectPlay    bool          `json:"EnableDirectPlay"`
	EnableDirectStream  bool          `json:"EnableDirectStream"`
	EnableTranscoding   bool          `json:"EnableTranscoding"`
	AutoOpenLiveStream  bool          `json:"AutoOpenLiveStream"`
	DeviceProfile       DeviceProfile `json:"DeviceProfile"`
}

type playbackInfoResult struct {
	MediaSources  []MediaSource `json:"MediaSources"`
	PlaySessionID string        `json:"PlaySessionId"`
	ErrorCode     string        `json:"ErrorCode,omitempty"`
}
