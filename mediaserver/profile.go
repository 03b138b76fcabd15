package mediaserver

// DeviceProfile tells the server what the player can decode, so it can pick
// between direct streaming and a transcode.
type DeviceProfile struct {
	Name                string               `json:"Name"`
	MaxStreamingBitrate int                  `json:"MaxStreamingBitrate,omitempty"`
	DirectPlayProfiles  []DirectPlayProfile  `json:"DirectPlayProfiles"`
	TranscodingProfiles []TranscodingProfile `json:"TranscodingProfiles"`
	SubtitleProfiles    []SubtitleProfile    `json:"SubtitleProfiles"`
}

type DirectPlayProfile struct {
	Type       string `json:"Type"`
	Container  string `json:"Container,omitempty"`
	VideoCodec string `json:"VideoCodec,omitempty"`
	AudioCodec string `json:"AudioCodec,omitempty"`
}

type TranscodingProfile struct {
	Type       string `json:"Type"`
	Container  string `json:"Container"`
	Protocol   string `json:"Protocol"`
	Context    string `json:"Context"`
	VideoCodec string `json:"VideoCodec"`
	AudioCodec string `json:"AudioCodec"`
}

type SubtitleProfile struct {
	Format string `json:"Format"`
	Method string `json:"Method"`
}

// PlayerProfile describes mpv: it plays any container directly, loads text
// subtitles as sidecar files and needs image subtitles burned in when
// transcoding.
func PlayerProfile(name string, maxBitrate int) DeviceProfile {
	return DeviceProfile{
		Name:                name,
		MaxStreamingBitrate: maxBitrate,
		DirectPlayProfiles: []DirectPlayProfile{
			{Type: "Video"},
			{Type: "Audio"},
		},
		TranscodingProfiles: []TranscodingProfile{
			{
				Type:       "Video",
				Container:  "ts",
				Protocol:   "hls",
				Context:    "Streaming",
				VideoCodec: "h264,hevc",
				AudioCodec: "aac,mp3,ac3,eac3,opus",
			},
		},
		SubtitleProfiles: []SubtitleProfile{
			{Format: "srt", Method: DeliveryExternal},
			{Format: "ass", Method: DeliveryExternal},
			{Format: "ssa", Method: DeliveryExternal},
			{Format: "vtt", Method: DeliveryExternal},
			{Format: "subrip", Method: DeliveryEmbed},
			{Format: "ass", Method: DeliveryEmbed},
			{Format: "pgssub", Method: DeliveryEncode},
			{Format: "dvdsub", Method: DeliveryEncode},
		},
	}
}
