package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testAlert(target int64) Alert {
	return Alert{
		SearchQuery: "iphone 15",
		TargetPrice: decimal.NewFromInt(target),
		IsActive:    true,
	}
}

func priced(store string, price int64) Listing {
	return Listing{
		ProductName: "iPhone 15",
		Price:       decimal.NewFromInt(price),
		ProductURL:  "https://" + store + ".az/iphone-15",
		StoreSlug:   store,
		StoreName:   store,
		InStock:     true,
	}
}

func TestApplyEvaluationTriggersOnTargetReached(t *testing.T) {
	a := testAlert(1500)
	now := time.Now()

	outcome := a.ApplyEvaluation([]Listing{priced("umico", 1450), priced("kontakt", 1600)}, now)
	assert.True(t, outcome.Triggered)
	assert.False(t, outcome.Rearmed)
	require.NotNil(t, outcome.Lowest)
	assert.Equal(t, "umico", outcome.Lowest.StoreSlug)

	assert.True(t, a.IsTriggered)
	require.NotNil(t, a.TriggeredAt)
	assert.Equal(t, now, *a.TriggeredAt)
	require.NotNil(t, a.LowestPriceFound)
	assert.Equal(t, "1450", a.LowestPriceFound.String())
	assert.Equal(t, "umico", *a.LowestPriceStore)
	assert.Equal(t, "https://umico.az/iphone-15", *a.LowestPriceURL)
	assert.Equal(t, AlertStateTriggered, a.State())
}

func TestApplyEvaluationExactTargetTriggers(t *testing.T) {
	a := testAlert(1500)
	outcome := a.ApplyEvaluation([]Listing{priced("kontakt", 1500)}, time.Now())
	assert.True(t, outcome.Triggered)
}

func TestApplyEvaluationNoRefireWhileTriggered(t *testing.T) {
	a := testAlert(1500)
	first := a.ApplyEvaluation([]Listing{priced("umico", 1450)}, time.Now())
	require.True(t, first.Triggered)
	triggeredAt := *a.TriggeredAt

	second := a.ApplyEvaluation([]Listing{priced("umico", 1400)}, time.Now().Add(time.Hour))
	assert.False(t, second.Triggered)
	assert.False(t, second.Rearmed)
	assert.True(t, a.IsTriggered)
	// The original trigger time stays put while the price remains below
	// target.
	assert.Equal(t, triggeredAt, *a.TriggeredAt)
	assert.Equal(t, "1400", a.LowestPriceFound.String())
}

func TestApplyEvaluationRearmAndRefire(t *testing.T) {
	a := testAlert(1500)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	outcome := a.ApplyEvaluation([]Listing{priced("umico", 1450)}, t0)
	require.True(t, outcome.Triggered)

	outcome = a.ApplyEvaluation([]Listing{priced("umico", 1550)}, t0.Add(4*time.Hour))
	assert.True(t, outcome.Rearmed)
	assert.False(t, outcome.Triggered)
	assert.False(t, a.IsTriggered)
	assert.Nil(t, a.TriggeredAt)
	assert.Equal(t, AlertStateActive, a.State())

	outcome = a.ApplyEvaluation([]Listing{priced("kontakt", 1490)}, t0.Add(8*time.Hour))
	assert.True(t, outcome.Triggered)
	require.NotNil(t, a.TriggeredAt)
	assert.Equal(t, t0.Add(8*time.Hour), *a.TriggeredAt)
}

func TestApplyEvaluationAboveTargetStaysArmed(t *testing.T) {
	a := testAlert(1500)
	outcome := a.ApplyEvaluation([]Listing{priced("kontakt", 1600)}, time.Now())
	assert.False(t, outcome.Triggered)
	assert.False(t, outcome.Rearmed)
	assert.False(t, a.IsTriggered)
	assert.Equal(t, AlertStateActive, a.State())
}

func TestApplyEvaluationEmptyListings(t *testing.T) {
	a := testAlert(1500)
	now := time.Now()

	outcome := a.ApplyEvaluation(nil, now)
	assert.False(t, outcome.Triggered)
	assert.False(t, outcome.Rearmed)
	assert.Nil(t, outcome.Lowest)
	require.NotNil(t, a.LastCheckedAt)
	assert.Equal(t, now, *a.LastCheckedAt)
	assert.Nil(t, a.LowestPriceFound)
	assert.Nil(t, a.LowestPriceStore)

	// A triggered alert is not re-armed by an empty cycle either.
	a = testAlert(1500)
	a.ApplyEvaluation([]Listing{priced("umico", 1450)}, now)
	a.ApplyEvaluation(nil, now.Add(time.Hour))
	assert.True(t, a.IsTriggered)
	assert.Equal(t, "1450", a.LowestPriceFound.String())
}

func TestAlertState(t *testing.T) {
	a := testAlert(1500)
	assert.Equal(t, AlertStatePending, a.State())
	assert.Equal(t, "PENDING", a.State().String())

	now := time.Now()
	a.LastCheckedAt = &now
	assert.Equal(t, AlertStateActive, a.State())

	a.IsTriggered = true
	assert.Equal(t, AlertStateTriggered, a.State())

	a.IsActive = false
	assert.Equal(t, AlertStateInactive, a.State())
	assert.Equal(t, "INACTIVE", a.State().String())
}

func TestAlertOwnership(t *testing.T) {
	a := testAlert(1500)
	assert.False(t, a.OwnedByUser())

	id := primitive.NewObjectID()
	a.UserID = &id
	assert.True(t, a.OwnedByUser())
}
