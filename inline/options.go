package inline

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Server is the part of the media server inspect needs.
type Server interface {
	Item(ctx context.Context, id string) (*mediaserver.Item, error)
	Search(ctx context.Context, term string, limit int) ([]*mediaserver.Item, error)
	Episodes(ctx context.Context, seriesID string) ([]*mediaserver.Item, error)
	PlaybackInfo(ctx context.Context, req mediaserver.PlaybackRequest) (*mediaserver.Descriptor, error)
}

type (
	ItemPicker     func([]*mediaserver.Item) *mediaserver.Item
	EpisodesFilter func([]*mediaserver.Item) ([]*mediaserver.Item, error)
)

type Options struct {
	Out    io.Writer
	Server Server

	// IDs are inspected as given. Query is searched when IDs is empty.
	IDs   []string
	Query string
	Limit int

	Picker   mo.Option[ItemPicker]
	Episodes mo.Option[EpisodesFilter]

	Json bool
	// Streams requests a playback descriptor for every item, which adds
	// the stream URL and the track catalog.
	Streams    bool
	MaxBitrate int
}

func ParseItemPicker(kind, query string) (ItemPicker, error) {
	switch kind {
	case "first":
		return func(items []*mediaserver.Item) *mediaserver.Item {
			if len(items) == 0 {
				return nil
			}
			return items[0]
		}, nil
	case "last":
		return func(items []*mediaserver.Item) *mediaserver.Item {
			if len(items) == 0 {
				return nil
			}
			return items[len(items)-1]
		}, nil
	case "exact":
		return func(items []*mediaserver.Item) *mediaserver.Item {
			item, _ := lo.Find(items, func(i *mediaserver.Item) bool {
				return i.Name == query
			})
			return item
		}, nil
	case "closest":
		return func(items []*mediaserver.Item) *mediaserver.Item {
			return mediaserver.FindClosest(items, query).OrEmpty()
		}, nil
	default:
		idx, err := strconv.ParseUint(kind, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid item picker: %s", kind)
		}
		return func(items []*mediaserver.Item) *mediaserver.Item {
			if len(items) == 0 {
				return nil
			}
			return items[util.Min(idx, uint64(len(items)-1))]
		}, nil
	}
}

// ParseEpisodesFilter parses an episode selector:
// "first", "last", "all", "N", "FROM-TO" or "@substring@".
func ParseEpisodesFilter(description string) (EpisodesFilter, error) {
	switch description {
	case "first":
		return func(episodes []*mediaserver.Item) ([]*mediaserver.Item, error) {
			return lo.Slice(episodes, 0, 1), nil
		}, nil
	case "last":
		return func(episodes []*mediaserver.Item) ([]*mediaserver.Item, error) {
			if len(episodes) == 0 {
				return episodes, nil
			}
			return episodes[len(episodes)-1:], nil
		}, nil
	case "all":
		return func(episodes []*mediaserver.Item) ([]*mediaserver.Item, error) {
			return episodes, nil
		}, nil
	}

	if from, to, ok := strings.Cut(description, "-"); ok {
		start, err1 := strconv.ParseUint(from, 10, 16)
		end, err2 := strconv.ParseUint(to, 10, 16)
		if err1 == nil && err2 == nil {
			return func(episodes []*mediaserver.Item) ([]*mediaserver.Item, error) {
				return lo.Slice(episodes, int(start), int(end)+1), nil
			}, nil
		}
	}

	if len(description) > 1 && strings.HasPrefix(description, "@") && strings.HasSuffix(description, "@") {
		sub := strings.ToLower(description[1 : len(description)-1])
		return func(episodes []*mediaserver.Item) ([]*mediaserver.Item, error) {
			return lo.Filter(episodes, func(e *mediaserver.Item, _ int) bool {
				return strings.Contains(strings.ToLower(e.Name), sub)
			}), nil
		}, nil
	}

	if idx, err := strconv.ParseUint(description, 10, 16); err == nil {
		return func(episodes []*mediaserver.Item) ([]*mediaserver.Item, error) {
			if uint64(len(episodes)) <= idx {
				return []*mediaserver.Item{}, nil
			}
			return []*mediaserver.Item{episodes[idx]}, nil
		}, nil
	}

	return nil, fmt.Errorf("invalid episode filter: %s", description)
}
