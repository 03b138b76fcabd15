// Package episode decides whether a queue item is an episode of a series and
// finds its neighbouring episodes on the media server.
package episode

import (
	"context"
	"regexp"
	"strconv"

	"github.com/reelix-cli/reelix/internal/cache"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

// Kind is the classification of an item.
type Kind int

const (
	// Unknown means the server has not been asked yet.
	Unknown Kind = iota
	Episode
	Other
)

func (k Kind) String() string {
	switch k {
	case Episode:
		return "episode"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// Direction of a sibling lookup.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Server is the part of the media server the resolver needs.
type Server interface {
	Item(ctx context.Context, id string) (*mediaserver.Item, error)
	Episodes(ctx context.Context, seriesID string) ([]*mediaserver.Item, error)
}

// Matches "S1:E2", "S01E02", "s1.e2" and "Season 1 Episode 2".
var subtitlePattern = regexp.MustCompile(
	`(?i)\bS(?P<season>\d{1,3})\s*[:.]?\s*E(?P<episode>\d{1,4})\b|\bseason\s+(?P<season2>\d{1,3})\W+episode\s+(?P<episode2>\d{1,4})\b`,
)

// ParseSubtitle extracts season and episode numbers from a display subtitle.
func ParseSubtitle(subtitle string) (season, episode int, ok bool) {
	groups := util.ReGroups(subtitlePattern, subtitle)

	s := lo.CoalesceOrEmpty(groups["season"], groups["season2"])
	e := lo.CoalesceOrEmpty(groups["episode"], groups["episode2"])
	if s == "" || e == "" {
		return 0, 0, false
	}

	season, _ = strconv.Atoi(s)
	episode, _ = strconv.Atoi(e)
	return season, episode, true
}

// Resolver classifies items and looks up sibling episodes. Classifications
// are kept in the injected item type cache.
type Resolver struct {
	server Server
	types  *cache.Store[string]
}

// New returns a resolver over server, recording item types in types.
func New(server Server, types *cache.Store[string]) *Resolver {
	return &Resolver{server: server, types: types}
}

// Classify returns what is known about item without asking the server: a
// season/episode subtitle classifies it as an episode at once, otherwise the
// cached item type decides. Items never looked up are Unknown.
func (r *Resolver) Classify(item *queue.Item) Kind {
	if _, _, ok := ParseSubtitle(item.Subtitle); ok {
		if r.types.Get(item.ID).IsAbsent() {
			r.remember(item.ID, mediaserver.TypeEpisode)
		}
		return Episode
	}

	if kind, ok := r.types.Get(item.ID).Get(); ok {
		return kindOf(kind)
	}
	return Unknown
}

func kindOf(itemType string) Kind {
	if itemType == mediaserver.TypeEpisode {
		return Episode
	}
	return Other
}

func (r *Resolver) remember(id, itemType string) {
	if err := r.types.Set(id, itemType); err != nil {
		log.Warnf("item type cache: %s", err)
	}
}

// Lookup asks the server for the item type when Classify cannot tell and
// caches the answer. Failures are logged and leave the item Unknown.
func (r *Resolver) Lookup(ctx context.Context, item *queue.Item) Kind {
	if kind := r.Classify(item); kind != Unknown {
		return kind
	}

	remote, err := r.server.Item(ctx, item.ID)
	if err != nil {
		log.Warnf("classify %s: %s", item.ID, err)
		return Unknown
	}

	r.remember(item.ID, remote.Type)
	return kindOf(remote.Type)
}

// Sibling returns the episode next to item in its series, ordered by season
// and episode. Any failure, including a missing series id or an item absent
// from its own series, yields None.
func (r *Resolver) Sibling(ctx context.Context, item *queue.Item, dir Direction) mo.Option[*queue.Item] {
	seriesID := item.SeriesID
	if seriesID == "" {
		remote, err := r.server.Item(ctx, item.ID)
		if err != nil {
			log.Warnf("sibling of %s: %s", item.ID, err)
			return mo.None[*queue.Item]()
		}
		seriesID = remote.SeriesID
	}

	if seriesID == "" {
		log.Infof("sibling of %s: no series", item.ID)
		return mo.None[*queue.Item]()
	}

	episodes, err := r.server.Episodes(ctx, seriesID)
	if err != nil {
		log.Warnf("sibling of %s: %s", item.ID, err)
		return mo.None[*queue.Item]()
	}

	episodes = slices.Clone(episodes)
	mediaserver.SortEpisodes(episodes)

	_, at, found := lo.FindIndexOf(episodes, func(e *mediaserver.Item) bool {
		return e.ID == item.ID
	})
	if !found {
		log.Warnf("sibling of %s: not listed in series %s", item.ID, seriesID)
		return mo.None[*queue.Item]()
	}

	at += lo.Ternary(dir == Forward, 1, -1)
	if at < 0 || at >= len(episodes) {
		return mo.None[*queue.Item]()
	}

	sibling := episodes[at]
	if sibling.Type == "" {
		sibling.Type = mediaserver.TypeEpisode
	}
	if sibling.SeriesID == "" {
		sibling.SeriesID = seriesID
	}
	r.remember(sibling.ID, mediaserver.TypeEpisode)

	return mo.Some(queue.FromServer(sibling))
}
