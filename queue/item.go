package queue

import (
	"fmt"

	"github.com/reelix-cli/reelix/chapter"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/samber/mo"
)

// Item is a playable queue entry. Items are shared by pointer and compared by
// identity: the same item may appear in a queue more than once.
type Item struct {
	ID       string
	Title    string
	Subtitle string
	SeriesID string
	Season   mo.Option[int]
	Episode  mo.Option[int]

	// URL is a direct stream URL. When set, no descriptor is requested.
	URL string

	// Chapters is filled lazily on first need.
	Chapters mo.Option[[]chapter.Mark]

	ResumeTicks int64

	// Descriptor is the latest playback descriptor of the item.
	Descriptor *mediaserver.Descriptor
}

// FromServer builds an item from server metadata. Episodes get a
// "S1:E2 - Name" subtitle under their series title.
func FromServer(i *mediaserver.Item) *Item {
	item := &Item{
		ID:          i.ID,
		Title:       i.Name,
		SeriesID:    i.SeriesID,
		Season:      mo.PointerToOption(i.Season),
		Episode:     mo.PointerToOption(i.Episode),
		ResumeTicks: i.ResumeTicks(),
	}

	if len(i.Chapters) > 0 {
		item.Chapters = mo.Some(chapter.FromServer(i.Chapters))
	}

	season, hasSeason := item.Season.Get()
	episode, hasEpisode := item.Episode.Get()
	if i.Type == mediaserver.TypeEpisode && hasSeason && hasEpisode {
		if i.SeriesName != "" {
			item.Title = i.SeriesName
		}
		item.Subtitle = fmt.Sprintf("S%d:E%d - %s", season, episode, i.Name)
	}

	return item
}

// String returns the display name of the item.
func (i *Item) String() string {
	if i.Subtitle == "" {
		return i.Title
	}
	return i.Title + " " + i.Subtitle
}
