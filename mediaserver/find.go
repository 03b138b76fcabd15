package mediaserver

import (
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

func normalizedName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DisplayName is the name shown for an item in lists: episodes are prefixed
// with their series.
func (i *Item) DisplayName() string {
	if i.Type == TypeEpisode && i.SeriesName != "" {
		return i.SeriesName + " - " + i.Name
	}
	return i.Name
}

// FindClosest picks the search result whose name is closest to query.
// Fuzzy matches are preferred; the Levenshtein distance breaks ties and
// covers queries that match nothing fuzzily.
func FindClosest(items []*Item, query string) mo.Option[*Item] {
	if len(items) == 0 {
		return mo.None[*Item]()
	}

	query = normalizedName(query)
	candidates := lo.Filter(items, func(item *Item, _ int) bool {
		return fuzzy.MatchNormalizedFold(query, item.Name)
	})
	if len(candidates) == 0 {
		candidates = items
	}

	closest := lo.MinBy(candidates, func(a, b *Item) bool {
		return levenshtein.Distance(query, normalizedName(a.Name)) <
			levenshtein.Distance(query, normalizedName(b.Name))
	})
	return mo.Some(closest)
}
