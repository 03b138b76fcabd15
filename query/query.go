// Package query remembers library searches and suggests them again.
package query

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type record struct {
	Rank  int    `json:"rank"`
	Query string `json:"query"`
}

var cacher = gache.New[map[string]*record](
	&gache.Options{
		Path:       where.Queries(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Remember records a search, or raises its rank by weight when it was made before.
func Remember(q string, weight int) error {
	q = normalize(q)
	if q == "" {
		return nil
	}

	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		cached = make(map[string]*record)
	}

	if r, ok := cached[q]; ok {
		r.Rank += weight
	} else {
		cached[q] = &record{Rank: weight, Query: q}
	}

	return cacher.Set(cached)
}

// Suggest returns the best earlier search matching q.
func Suggest(q string) mo.Option[string] {
	suggestions := SuggestMany(q)
	if len(suggestions) == 0 {
		return mo.None[string]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns earlier searches fuzzily matching q, most frequent first.
func SuggestMany(q string) []string {
	if !viper.GetBool(key.SearchQuerySuggestions) {
		return []string{}
	}

	cached, expired, err := cacher.Get()
	if err != nil || expired || cached == nil {
		return []string{}
	}

	q = normalize(q)
	records := lo.Filter(lo.Values(cached), func(r *record, _ int) bool {
		return fuzzy.Match(q, r.Query)
	})

	slices.SortFunc(records, func(a, b *record) int {
		if a.Rank != b.Rank {
			return b.Rank - a.Rank
		}
		return strings.Compare(a.Query, b.Query)
	})

	return lo.Map(records, func(r *record, _ int) string {
		return r.Query
	})
}

func normalize(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
