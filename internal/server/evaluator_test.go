package server

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ruhidibadli/ucuzbot/internal/aggregator"
	"github.com/ruhidibadli/ucuzbot/internal/model"
)

type nopLogger struct{}

func (nopLogger) Debug(v ...any)                 {}
func (nopLogger) Info(v ...any)                  {}
func (nopLogger) Error(v ...any)                 {}
func (nopLogger) Tracef(format string, v ...any) {}
func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Warnf(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}

type stubAdapter struct {
	slug     string
	listings []model.Listing
	err      error
}

func (a stubAdapter) Slug() string  { return a.slug }
func (a stubAdapter) Name() string  { return a.slug }
func (a stubAdapter) Priority() int { return 0 }
func (a stubAdapter) Search(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	return a.listings, a.err
}

type fakeEvalStore struct {
	updated []model.Alert
	records [][]model.PriceRecord
	acts    []model.Activity
}

func (f *fakeEvalStore) AlertUpdateEvaluation(ctx context.Context, a model.Alert) error {
	f.updated = append(f.updated, a)
	return nil
}

func (f *fakeEvalStore) PriceRecordsInsert(ctx context.Context, recs []model.PriceRecord) error {
	f.records = append(f.records, recs)
	return nil
}

func (f *fakeEvalStore) ActivityInsert(ctx context.Context, act model.Activity) error {
	f.acts = append(f.acts, act)
	return nil
}

func evalTestServer(adapters ...aggregator.Adapter) Server {
	return Server{
		Engine: aggregator.Engine{
			Adapters:           adapters,
			Deadline:           time.Second,
			MaxResultsPerStore: 10,
			Logger:             nopLogger{},
		},
		Logger: nopLogger{},
	}
}

func TestEvaluateAlertSoftFailure(t *testing.T) {
	// Every store down: the check is recorded but price and trigger
	// state survive untouched.
	triggeredAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	lowest := decimal.NewFromInt(1450)
	a := model.Alert{
		ID:               primitive.NewObjectID(),
		SearchQuery:      "iphone 15",
		TargetPrice:      decimal.NewFromInt(1500),
		StoreSlugs:       []string{"kontakt"},
		IsActive:         true,
		IsTriggered:      true,
		TriggeredAt:      &triggeredAt,
		LowestPriceFound: &lowest,
	}

	s := evalTestServer(stubAdapter{slug: "kontakt", err: errors.New("timeout")})
	store := &fakeEvalStore{}
	s.evaluateAlert(context.Background(), a, store)

	require.Len(t, store.updated, 1)
	got := store.updated[0]
	require.NotNil(t, got.LastCheckedAt)
	assert.True(t, got.IsTriggered)
	assert.Equal(t, triggeredAt, *got.TriggeredAt)
	assert.Equal(t, "1450", got.LowestPriceFound.String())
	assert.Empty(t, store.records)
	assert.Empty(t, store.acts)
}

func TestEvaluateAlertRecordsPrices(t *testing.T) {
	a := model.Alert{
		ID:          primitive.NewObjectID(),
		SearchQuery: "iphone 15",
		TargetPrice: decimal.NewFromInt(1500),
		StoreSlugs:  []string{"kontakt"},
		IsActive:    true,
	}
	s := evalTestServer(stubAdapter{slug: "kontakt", listings: []model.Listing{{
		ProductName: "Apple iPhone 15",
		Price:       decimal.NewFromInt(2000),
		ProductURL:  "https://kontakt.az/iphone-15.html",
		StoreSlug:   "kontakt",
		StoreName:   "Kontakt Home",
		InStock:     true,
	}}})
	store := &fakeEvalStore{}
	s.evaluateAlert(context.Background(), a, store)

	require.Len(t, store.updated, 1)
	got := store.updated[0]
	assert.False(t, got.IsTriggered)
	require.NotNil(t, got.LowestPriceFound)
	assert.Equal(t, "2000", got.LowestPriceFound.String())

	require.Len(t, store.records, 1)
	require.Len(t, store.records[0], 1)
	rec := store.records[0][0]
	assert.Equal(t, a.ID, rec.AlertID)
	assert.Equal(t, "kontakt", rec.StoreSlug)
	assert.Equal(t, "2000", rec.Price.String())
	assert.False(t, rec.ScrapedAt.IsZero())
	assert.Empty(t, store.acts)
}

func TestEvalGateSingleFlightPerAlert(t *testing.T) {
	g := NewEvalGate(3)

	assert.True(t, g.TryAcquire("alert-1"))
	assert.False(t, g.TryAcquire("alert-1"))
	assert.True(t, g.TryAcquire("alert-2"))

	g.Release("alert-1")
	assert.True(t, g.TryAcquire("alert-1"))
}

func TestEvalGateConcurrentAcquire(t *testing.T) {
	g := NewEvalGate(3)

	var acquired int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire("same-alert") {
				atomic.AddInt64(&acquired, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), acquired)
}

func TestEvalGateSlotCap(t *testing.T) {
	g := NewEvalGate(2)

	g.acquireSlot()
	g.acquireSlot()
	select {
	case g.slots <- struct{}{}:
		t.Fatal("slot channel accepted a write beyond the concurrency cap")
	default:
	}
	g.releaseSlot()
	g.acquireSlot()
}

func TestNewEvalGateMinimumConcurrency(t *testing.T) {
	g := NewEvalGate(0)
	assert.Equal(t, 1, cap(g.slots))
}
