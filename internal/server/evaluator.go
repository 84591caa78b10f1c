package server

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ruhidibadli/ucuzbot/internal/aggregator"
	"github.com/ruhidibadli/ucuzbot/internal/misc"
	"github.com/ruhidibadli/ucuzbot/internal/model"
)

// EvalGate bounds alert evaluation: a global slot pool caps concurrent
// scrape fan-outs, and a per-alert in-flight set guarantees at most one
// evaluation per alert at a time. Concurrent "check now" and sweep runs
// of the same alert therefore cannot race to opposite outcomes.
type EvalGate struct {
	slots    chan struct{}
	inFlight sync.Map
}

func NewEvalGate(concurrency int) *EvalGate {
	if concurrency < 1 {
		concurrency = 1
	}
	return &EvalGate{slots: make(chan struct{}, concurrency)}
}

// TryAcquire claims the alert for evaluation, returning false if an
// evaluation of it is already running.
func (g *EvalGate) TryAcquire(alertID string) bool {
	_, loaded := g.inFlight.LoadOrStore(alertID, struct{}{})
	return !loaded
}

func (g *EvalGate) Release(alertID string) {
	g.inFlight.Delete(alertID)
}

func (g *EvalGate) acquireSlot() { g.slots <- struct{}{} }
func (g *EvalGate) releaseSlot() { <-g.slots }

// Price-history rows older than this are pruned every sweep.
const priceRecordRetention = 90 * 24 * time.Hour

func (s Server) CheckAlertsInInterval(ctx context.Context, ticker *time.Ticker) {
	for range ticker.C {
		s.checkAlerts(ctx)
	}
}

func (s Server) checkAlerts(ctx context.Context) {
	s.Logger.Info("checkAlerts: Starting scheduled sweep over due Alerts")
	cutoff := time.Now().Add(-s.CheckInterval)
	as, err := s.DB.AlertsFindDue(ctx, cutoff)
	if err != nil {
		s.Logger.Errorf("checkAlerts: Error getting due Alerts from DB, err: %v", err)
		return
	}
	s.Logger.Infof("checkAlerts: Retrieved %d due Alert(s) from DB", len(as))

	var wg sync.WaitGroup
	for _, a := range as {
		a := a
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.EvaluateAlert(ctx, a)
		}()
	}
	wg.Wait()

	deleted, err := s.DB.PriceRecordsDeleteBefore(ctx, time.Now().Add(-priceRecordRetention))
	if err != nil {
		s.Logger.Errorf("checkAlerts: Error pruning old PriceRecords, err: %v", err)
	} else if deleted > 0 {
		s.Logger.Infof("checkAlerts: Pruned %d old PriceRecord(s)", deleted)
	}
	s.Logger.Info("checkAlerts: Finished scheduled sweep")
}

// evalStore is the slice of the database an evaluation writes to.
type evalStore interface {
	AlertUpdateEvaluation(ctx context.Context, a model.Alert) error
	PriceRecordsInsert(ctx context.Context, recs []model.PriceRecord) error
	ActivityInsert(ctx context.Context, act model.Activity) error
}

// EvaluateAlert runs one full evaluation of an alert: scrape its
// stores, fold the result into the state machine, persist, and
// dispatch a notification when a trigger transition happened.
func (s Server) EvaluateAlert(ctx context.Context, a model.Alert) {
	alertID := a.ID.Hex()
	if !s.Eval.TryAcquire(alertID) {
		s.Logger.Debugf("EvaluateAlert: Alert already being evaluated, ID: %s", alertID)
		return
	}
	defer s.Eval.Release(alertID)

	s.Eval.acquireSlot()
	defer s.Eval.releaseSlot()

	s.evaluateAlert(ctx, a, s.DB)
}

func (s Server) evaluateAlert(ctx context.Context, a model.Alert, store evalStore) {
	alertID := a.ID.Hex()
	query := misc.StringLimit(a.SearchQuery, 50)
	s.Logger.Infof("EvaluateAlert: Evaluating Alert, ID: %s, query: %s", alertID, query)

	listings, err := s.Engine.Search(ctx, a.SearchQuery, a.StoreSlugs, false)
	if err != nil {
		if errors.Is(err, aggregator.ErrAllSourcesUnavailable) {
			// Soft failure: record that a check was attempted, leave
			// price fields and trigger state alone.
			s.Logger.Warnf("EvaluateAlert: All stores unavailable for Alert, ID: %s, query: %s, err: %v",
				alertID, query, err)
			now := time.Now()
			a.LastCheckedAt = &now
			if err = store.AlertUpdateEvaluation(ctx, a); err != nil {
				s.Logger.Errorf("EvaluateAlert: Error updating Alert after soft failure, err: %v", err)
			}
			return
		}
		s.Logger.Errorf("EvaluateAlert: Error searching stores for Alert, ID: %s, err: %v", alertID, err)
		return
	}

	now := time.Now()
	outcome := a.ApplyEvaluation(listings, now)
	if err = store.AlertUpdateEvaluation(ctx, a); err != nil {
		s.Logger.Errorf("EvaluateAlert: Error updating Alert, err: %v", err)
		return
	}
	if err = store.PriceRecordsInsert(ctx, model.PriceRecordsFromListings(a.ID, listings, now)); err != nil {
		s.Logger.Errorf("EvaluateAlert: Error inserting PriceRecords, err: %v", err)
	}

	switch {
	case outcome.Triggered:
		s.Logger.Infof("EvaluateAlert: Alert triggered, ID: %s, query: %s, price: %s, store: %s",
			alertID, query, outcome.Lowest.Price, outcome.Lowest.StoreSlug)
		if err = store.ActivityInsert(ctx, model.Activity{
			UserID: a.UserID,
			Action: model.ActivityAlertTriggered,
			Detail: a.SearchQuery,
		}); err != nil {
			s.Logger.Errorf("EvaluateAlert: Error inserting Activity, err: %v", err)
		}
		s.dispatchTrigger(ctx, a, *outcome.Lowest)
	case outcome.Rearmed:
		s.Logger.Infof("EvaluateAlert: Alert re-armed, ID: %s, query: %s, price rose to: %s",
			alertID, query, outcome.Lowest.Price)
	case outcome.Lowest != nil:
		s.Logger.Debugf("EvaluateAlert: Alert checked, ID: %s, query: %s, lowest price: %s",
			alertID, query, outcome.Lowest.Price)
	default:
		s.Logger.Debugf("EvaluateAlert: Alert checked, no relevant listings found, ID: %s, query: %s",
			alertID, query)
	}
}
