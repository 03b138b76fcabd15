// Package track derives the selectable audio and subtitle tracks from the
// latest playback descriptor.
package track

import (
	"fmt"

	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// SubtitleOff is the subtitle index meaning "no subtitles".
const SubtitleOff = -1

// Kind of a track.
type Kind int

const (
	Audio Kind = iota
	Subtitle
)

func (k Kind) String() string {
	if k == Audio {
		return "audio"
	}
	return "subtitle"
}

// Track is one selectable stream.
type Track struct {
	Index       int    `json:"index"`
	Kind        Kind   `json:"-"`
	Label       string `json:"label"`
	Language    string `json:"language,omitempty"`
	Codec       string `json:"codec,omitempty"`
	Default     bool   `json:"default"`
	Delivery    string `json:"delivery,omitempty"`
	DeliveryURL string `json:"deliveryUrl,omitempty"`
	Synthetic   bool   `json:"synthetic,omitempty"`
}

// NeedsNewSession reports whether selecting the track requires the server to
// produce a new stream. Only sidecar subtitles can be toggled client side.
func (t Track) NeedsNewSession() bool {
	return !(t.Kind == Subtitle && t.Delivery == mediaserver.DeliveryExternal)
}

// Catalog is the set of tracks offered by one descriptor.
type Catalog struct {
	Audio    []Track `json:"audio"`
	Subtitle []Track `json:"subtitle"`
}

// DefaultAudioLabel is the label of the synthetic track offered when the
// descriptor reports no audio.
const DefaultAudioLabel = "Default Audio"

// Available derives the catalog from descriptor streams. A descriptor without
// audio streams yields a single synthetic default audio track.
func Available(streams []mediaserver.MediaStream) Catalog {
	var catalog Catalog

	for _, s := range streams {
		switch s.Type {
		case mediaserver.StreamAudio:
			catalog.Audio = append(catalog.Audio, fromStream(s, Audio))
		case mediaserver.StreamSubtitle:
			catalog.Subtitle = append(catalog.Subtitle, fromStream(s, Subtitle))
		}
	}

	if len(catalog.Audio) == 0 {
		catalog.Audio = []Track{{
			Index:     0,
			Kind:      Audio,
			Label:     DefaultAudioLabel,
			Default:   true,
			Synthetic: true,
		}}
	}

	return catalog
}

func fromStream(s mediaserver.MediaStream, kind Kind) Track {
	label := s.DisplayTitle
	if label == "" {
		label = lo.Ternary(s.Language != "", s.Language, fmt.Sprintf("%s #%d", kind, s.Index))
	}

	return Track{
		Index:       s.Index,
		Kind:        kind,
		Label:       label,
		Language:    s.Language,
		Codec:       s.Codec,
		Default:     s.IsDefault,
		Delivery:    s.DeliveryMethod,
		DeliveryURL: s.DeliveryURL,
	}
}

// DefaultAudio returns the server default audio track, or the first one.
func (c Catalog) DefaultAudio() Track {
	if t, ok := lo.Find(c.Audio, func(t Track) bool { return t.Default }); ok {
		return t
	}
	return c.Audio[0]
}

// DefaultSubtitle returns the server default subtitle index, or SubtitleOff.
func (c Catalog) DefaultSubtitle() int {
	if t, ok := lo.Find(c.Subtitle, func(t Track) bool { return t.Default }); ok {
		return t.Index
	}
	return SubtitleOff
}

// AudioByIndex looks up an audio track by stream index.
func (c Catalog) AudioByIndex(index int) mo.Option[Track] {
	return byIndex(c.Audio, index)
}

// SubtitleByIndex looks up a subtitle track by stream index.
func (c Catalog) SubtitleByIndex(index int) mo.Option[Track] {
	return byIndex(c.Subtitle, index)
}

func byIndex(tracks []Track, index int) mo.Option[Track] {
	t, ok := lo.Find(tracks, func(t Track) bool { return t.Index == index })
	return lo.Ternary(ok, mo.Some(t), mo.None[Track]())
}

// Sidecars returns the subtitle tracks delivered as separate files.
func (c Catalog) Sidecars() []Track {
	return lo.Filter(c.Subtitle, func(t Track, _ int) bool {
		return t.Delivery == mediaserver.DeliveryExternal && t.DeliveryURL != ""
	})
}
