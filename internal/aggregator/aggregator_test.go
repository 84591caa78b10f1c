package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any) {}
func (nopLogger) Errorf(format string, v ...any) {}

type fakeAdapter struct {
	slug     string
	priority int
	delay    time.Duration
	listings []model.Listing
	err      error
	calls    int
}

func (a *fakeAdapter) Slug() string  { return a.slug }
func (a *fakeAdapter) Name() string  { return a.slug }
func (a *fakeAdapter) Priority() int { return a.priority }
func (a *fakeAdapter) Search(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	a.calls++
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.listings, nil
}

type fakeCache struct {
	entries map[string][]model.Listing
	hits    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]model.Listing)}
}

func (c *fakeCache) Get(ctx context.Context, storeSlug string, query string) ([]model.Listing, bool) {
	listings, ok := c.entries[storeSlug+":"+query]
	if ok {
		c.hits++
	}
	return listings, ok
}

func (c *fakeCache) Set(ctx context.Context, storeSlug string, query string, listings []model.Listing) {
	c.sets++
	c.entries[storeSlug+":"+query] = listings
}

func listing(store, name, url string, price int64) model.Listing {
	return model.Listing{
		ProductName: name,
		Price:       decimal.NewFromInt(price),
		ProductURL:  url,
		StoreSlug:   store,
		StoreName:   store,
		InStock:     true,
	}
}

func testEngine(adapters ...Adapter) Engine {
	return Engine{
		Adapters:           adapters,
		Deadline:           2 * time.Second,
		MaxResultsPerStore: 10,
		Logger:             nopLogger{},
	}
}

func TestSearchOrderingIsDeterministic(t *testing.T) {
	// The slower, lower-priority store finishes last but its cheaper
	// listing must still rank first, and equal prices must resolve by
	// store priority.
	fast := &fakeAdapter{slug: "kontakt", priority: 1, listings: []model.Listing{
		listing("kontakt", "iPhone 15 Pro", "https://kontakt.az/a", 1600),
		listing("kontakt", "iPhone 15", "https://kontakt.az/b", 1500),
	}}
	slow := &fakeAdapter{slug: "umico", priority: 6, delay: 50 * time.Millisecond, listings: []model.Listing{
		listing("umico", "iPhone 15 128GB", "https://umico.az/a", 1450),
		listing("umico", "iPhone 15 qara", "https://umico.az/b", 1500),
	}}

	e := testEngine(fast, slow)
	for i := 0; i < 3; i++ {
		got, err := e.Search(context.Background(), "iphone 15", nil, false)
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, "https://umico.az/a", got[0].ProductURL)
		assert.Equal(t, "https://kontakt.az/b", got[1].ProductURL)
		assert.Equal(t, "https://umico.az/b", got[2].ProductURL)
		assert.Equal(t, "https://kontakt.az/a", got[3].ProductURL)
	}
}

func TestSearchPartialFailure(t *testing.T) {
	ok := &fakeAdapter{slug: "kontakt", priority: 1, listings: []model.Listing{
		listing("kontakt", "iPhone 15", "https://kontakt.az/a", 1500),
	}}
	broken := &fakeAdapter{slug: "maxi", priority: 4, err: errors.New("maintenance")}

	got, err := testEngine(ok, broken).Search(context.Background(), "iphone 15", nil, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kontakt", got[0].StoreSlug)
}

func TestSearchAllSourcesUnavailable(t *testing.T) {
	a := &fakeAdapter{slug: "kontakt", priority: 1, err: errors.New("timeout")}
	b := &fakeAdapter{slug: "maxi", priority: 4, err: errors.New("proxy error")}

	_, err := testEngine(a, b).Search(context.Background(), "iphone 15", nil, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllSourcesUnavailable))
}

func TestSearchStoreSelection(t *testing.T) {
	a := &fakeAdapter{slug: "kontakt", priority: 1, listings: []model.Listing{
		listing("kontakt", "iPhone 15", "https://kontakt.az/a", 1500),
	}}
	b := &fakeAdapter{slug: "irshad", priority: 3, listings: []model.Listing{
		listing("irshad", "iPhone 15", "https://irshad.az/a", 1550),
	}}
	e := testEngine(a, b)

	got, err := e.Search(context.Background(), "iphone 15", []string{"irshad"}, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "irshad", got[0].StoreSlug)
	assert.Equal(t, 0, a.calls)

	_, err = e.Search(context.Background(), "iphone 15", []string{"no-such-store"}, false)
	assert.True(t, errors.Is(err, ErrNoStoresSelected))
}

func TestSearchDedupesWithinStore(t *testing.T) {
	a := &fakeAdapter{slug: "tap_az", priority: 5, listings: []model.Listing{
		listing("tap_az", "iPhone 15 yeni", "https://tap.az/1", 1400),
		listing("tap_az", "iPhone 15 yeni elan", "https://tap.az/1", 1400),
		listing("tap_az", "iPhone 15 Pro", "https://tap.az/2", 1900),
	}}
	// The same URL on a different store is a price comparison, not a
	// duplicate.
	b := &fakeAdapter{slug: "kontakt", priority: 1, listings: []model.Listing{
		listing("kontakt", "iPhone 15", "https://tap.az/1", 1500),
	}}

	got, err := testEngine(a, b).Search(context.Background(), "iphone 15", nil, false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "tap_az", got[0].StoreSlug)
	assert.Equal(t, "kontakt", got[1].StoreSlug)
}

func TestSearchFiltersIrrelevantListings(t *testing.T) {
	a := &fakeAdapter{slug: "kontakt", priority: 1, listings: []model.Listing{
		listing("kontakt", "Apple iPhone 15 Pro", "https://kontakt.az/a", 2899),
		listing("kontakt", "iPhone 15 Pro üçün çexol", "https://kontakt.az/b", 15),
	}}

	got, err := testEngine(a).Search(context.Background(), "iphone 15 pro", nil, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://kontakt.az/a", got[0].ProductURL)
}

func TestSearchCacheRoundTrip(t *testing.T) {
	a := &fakeAdapter{slug: "kontakt", priority: 1, listings: []model.Listing{
		listing("kontakt", "iPhone 15", "https://kontakt.az/a", 1500),
	}}
	cache := newFakeCache()
	e := testEngine(a)
	e.Cache = cache

	_, err := e.Search(context.Background(), "iphone 15", nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, cache.sets)

	got, err := e.Search(context.Background(), "iphone 15", nil, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, cache.hits)
}

func TestSearchCacheBypass(t *testing.T) {
	a := &fakeAdapter{slug: "kontakt", priority: 1, listings: []model.Listing{
		listing("kontakt", "iPhone 15", "https://kontakt.az/a", 1500),
	}}
	cache := newFakeCache()
	e := testEngine(a)
	e.Cache = cache

	_, err := e.Search(context.Background(), "iphone 15", nil, false)
	require.NoError(t, err)
	_, err = e.Search(context.Background(), "iphone 15", nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls)
	assert.Equal(t, 0, cache.sets)
}
