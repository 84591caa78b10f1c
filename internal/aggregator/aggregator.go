// Package aggregator fans a search query out to every selected store
// adapter concurrently and merges whatever came back in time into one
// deterministically ranked result list.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ruhidibadli/ucuzbot/internal/model"
	"github.com/ruhidibadli/ucuzbot/internal/relevance"
)

// Adapter is one store's search capability.
type Adapter interface {
	Slug() string
	Name() string
	Priority() int
	Search(ctx context.Context, query string, maxResults int) ([]model.Listing, error)
}

// Cache is an optional per-(store, query) result cache consulted only
// when the caller opts in.
type Cache interface {
	Get(ctx context.Context, storeSlug string, query string) ([]model.Listing, bool)
	Set(ctx context.Context, storeSlug string, query string, listings []model.Listing)
}

// ScrapeError wraps one adapter's failure with its store slug.
type ScrapeError struct {
	Store string
	Err   error
}

func (e ScrapeError) Error() string {
	return fmt.Sprintf("scrape error from store %s: %v", e.Store, e.Err)
}

func (e ScrapeError) Unwrap() error { return e.Err }

// ErrAllSourcesUnavailable means every selected adapter failed. Partial
// failure is not an error: the merged results simply cover fewer
// stores that cycle.
var ErrAllSourcesUnavailable = errors.New("all sources unavailable")

var ErrNoStoresSelected = errors.New("no configured stores selected")

type Engine struct {
	Adapters           []Adapter
	Deadline           time.Duration
	MaxResultsPerStore int
	MinRelevance       float64
	Cache              Cache
	Logger             logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

// Search queries the stores in storeSlugs (all configured stores when
// empty) in parallel under the engine deadline. Failed or timed-out
// adapters are logged and skipped; only when every adapter fails does
// Search return ErrAllSourcesUnavailable.
//
// Ordering is deterministic regardless of adapter completion order:
// ascending price, ties broken by store priority, then first-seen
// order within a store.
func (e Engine) Search(ctx context.Context, query string, storeSlugs []string, useCache bool) ([]model.Listing, error) {
	selected := e.selectAdapters(storeSlugs)
	if len(selected) == 0 {
		return nil, ErrNoStoresSelected
	}

	ctx, cancel := context.WithTimeout(ctx, e.Deadline)
	defer cancel()

	results := make([][]model.Listing, len(selected))
	errs := make([]error, len(selected))

	var wg sync.WaitGroup
	for i, ad := range selected {
		wg.Add(1)
		go func(i int, ad Adapter) {
			defer wg.Done()

			if useCache && e.Cache != nil {
				if cached, ok := e.Cache.Get(ctx, ad.Slug(), query); ok {
					results[i] = cached
					return
				}
			}

			listings, err := ad.Search(ctx, query, e.MaxResultsPerStore)
			if err != nil {
				errs[i] = ScrapeError{Store: ad.Slug(), Err: err}
				e.Logger.Errorf("Search: Store %s failed for query %q, err: %v", ad.Slug(), query, err)
				return
			}
			listings = dedupeListings(listings)
			e.Logger.Debugf("Search: Store %s returned %d listing(s) for query %q", ad.Slug(), len(listings), query)
			results[i] = listings

			if useCache && e.Cache != nil {
				e.Cache.Set(ctx, ad.Slug(), query, listings)
			}
		}(i, ad)
	}
	wg.Wait()

	failed := 0
	var merged []model.Listing
	for i := range selected {
		if errs[i] != nil {
			failed++
			continue
		}
		merged = append(merged, results[i]...)
	}
	if failed == len(selected) {
		return nil, errors.Wrapf(ErrAllSourcesUnavailable, "%d store(s) failed for query %q", failed, query)
	}

	minScore := e.MinRelevance
	if minScore <= 0 {
		minScore = relevance.DefaultMinScore
	}
	merged = relevance.Filter(merged, query, minScore)

	// The slice is already in store-priority + first-seen order, so a
	// stable sort on price alone yields the documented tie-break.
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Price.LessThan(merged[b].Price)
	})
	return merged, nil
}

func (e Engine) selectAdapters(storeSlugs []string) []Adapter {
	var selected []Adapter
	if len(storeSlugs) == 0 {
		selected = append(selected, e.Adapters...)
	} else {
		want := make(map[string]bool, len(storeSlugs))
		for _, s := range storeSlugs {
			want[s] = true
		}
		for _, ad := range e.Adapters {
			if want[ad.Slug()] {
				selected = append(selected, ad)
			}
		}
	}
	sort.SliceStable(selected, func(a, b int) bool {
		return selected[a].Priority() < selected[b].Priority()
	})
	return selected
}

// dedupeListings removes exact (store, URL) duplicates within one
// adapter's results, keeping the first occurrence. Cross-store
// duplicates are kept: price comparison is the product.
func dedupeListings(listings []model.Listing) []model.Listing {
	seen := make(map[string]bool, len(listings))
	out := listings[:0]
	for _, l := range listings {
		key := l.StoreSlug + "|" + l.ProductURL
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
