// Package inline inspects media server items without the player surface:
// their chapters and, on request, the tracks and stream of a fresh playback
// descriptor.
package inline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/reelix-cli/reelix/chapter"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/track"
)

const defaultLimit = 20

func Run(ctx context.Context, options *Options) error {
	if options.Out == nil {
		options.Out = os.Stdout
	}

	items, err := candidates(ctx, options)
	if err != nil {
		return err
	}

	if options.Picker.IsPresent() {
		items = pick(items, options.Picker.MustGet())
	}

	items, err = expand(ctx, items, options)
	if err != nil {
		return err
	}

	entries := make([]*Entry, 0, len(items))
	for _, item := range items {
		entry, err := inspect(ctx, item, options)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	if options.Json {
		return writeJson(options.Out, entries, options.Query)
	}
	return writeText(options.Out, entries)
}

func candidates(ctx context.Context, options *Options) ([]*mediaserver.Item, error) {
	if len(options.IDs) == 0 {
		limit := options.Limit
		if limit <= 0 {
			limit = defaultLimit
		}
		items, err := options.Server.Search(ctx, options.Query, limit)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", options.Query, err)
		}
		return items, nil
	}

	items := make([]*mediaserver.Item, 0, len(options.IDs))
	for _, id := range options.IDs {
		item, err := options.Server.Item(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", id, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func pick(items []*mediaserver.Item, picker ItemPicker) []*mediaserver.Item {
	if choice := picker(items); choice != nil {
		return []*mediaserver.Item{choice}
	}
	return nil
}

// expand replaces series with their episodes, filtered when a filter is set.
func expand(ctx context.Context, items []*mediaserver.Item, options *Options) ([]*mediaserver.Item, error) {
	var result []*mediaserver.Item
	for _, item := range items {
		if item.Type != mediaserver.TypeSeries {
			result = append(result, item)
			continue
		}

		episodes, err := options.Server.Episodes(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("episodes of %s: %w", item.Name, err)
		}
		if options.Episodes.IsPresent() {
			episodes, err = options.Episodes.MustGet()(episodes)
			if err != nil {
				return nil, err
			}
		}
		result = append(result, episodes...)
	}
	return result, nil
}

func inspect(ctx context.Context, item *mediaserver.Item, options *Options) (*Entry, error) {
	entry := &Entry{
		Item:     item,
		Chapters: chapter.FromServer(item.Chapters),
	}

	if !options.Streams {
		return entry, nil
	}

	descriptor, err := options.Server.PlaybackInfo(ctx, mediaserver.PlaybackRequest{
		ItemID:     item.ID,
		MaxBitrate: options.MaxBitrate,
	})
	if err != nil {
		// one unplayable item does not spoil the listing
		log.Warnf("playback info of %s: %v", item.ID, err)
		return entry, nil
	}

	catalog := track.Available(descriptor.Streams)
	entry.Tracks = &catalog
	entry.Stream = descriptor
	return entry, nil
}

func writeJson(out io.Writer, entries []*Entry, query string) error {
	data, err := asJson(entries, query)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func writeText(out io.Writer, entries []*Entry) error {
	for _, entry := range entries {
		line := entry.Item.ID + "\t" + queue.FromServer(entry.Item).String()
		if entry.Stream != nil {
			line += "\t" + entry.Stream.StreamURL
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
