package model

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert is a price watch: a search query, a target price and the stores
// to watch. It is owned either by a registered user or by an anonymous
// browser push subscription, never both.
type Alert struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID           *primitive.ObjectID `bson:"user_id" json:"-"`
	PushEndpoint     string              `bson:"push_endpoint,omitempty" json:"-"`
	SearchQuery      string              `bson:"search_query" json:"search_query"`
	TargetPrice      decimal.Decimal     `bson:"target_price" json:"target_price"`
	StoreSlugs       []string            `bson:"store_slugs" json:"store_slugs"`
	IsActive         bool                `bson:"is_active" json:"is_active"`
	IsTriggered      bool                `bson:"is_triggered" json:"is_triggered"`
	TriggeredAt      *time.Time          `bson:"triggered_at" json:"triggered_at"`
	LastCheckedAt    *time.Time          `bson:"last_checked_at" json:"last_checked_at"`
	LowestPriceFound *decimal.Decimal    `bson:"lowest_price_found" json:"lowest_price_found"`
	LowestPriceStore *string             `bson:"lowest_price_store" json:"lowest_price_store"`
	LowestPriceURL   *string             `bson:"lowest_price_url" json:"lowest_price_url"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
}

type AlertState int

const (
	AlertStateInactive AlertState = iota
	AlertStatePending
	AlertStateActive
	AlertStateTriggered
)

func (s AlertState) String() string {
	switch s {
	case AlertStateInactive:
		return "INACTIVE"
	case AlertStatePending:
		return "PENDING"
	case AlertStateActive:
		return "ACTIVE"
	case AlertStateTriggered:
		return "TRIGGERED"
	}
	return "INVALID"
}

func (a Alert) State() AlertState {
	switch {
	case !a.IsActive:
		return AlertStateInactive
	case a.IsTriggered:
		return AlertStateTriggered
	case a.LastCheckedAt == nil:
		return AlertStatePending
	}
	return AlertStateActive
}

func (a Alert) OwnedByUser() bool {
	return a.UserID != nil
}

// EvalOutcome describes what a single evaluation did to an alert.
type EvalOutcome struct {
	Triggered bool
	Rearmed   bool
	Lowest    *Listing
}

// ApplyEvaluation folds one completed search into the alert state.
// Listings must be sorted ascending by price; the first entry is the
// lowest price found this cycle. An empty slice still counts as a
// completed check (last_checked_at moves) but leaves price fields and
// trigger state alone.
//
// Transitions: armed -> triggered when the lowest price reaches the
// target; triggered -> armed when a later check's lowest price rises
// above the target again. A re-trigger after a re-arm is a fresh
// transition and gets a fresh triggered_at.
func (a *Alert) ApplyEvaluation(listings []Listing, now time.Time) EvalOutcome {
	a.LastCheckedAt = &now
	if len(listings) == 0 {
		return EvalOutcome{}
	}

	lowest := listings[0]
	price := lowest.Price
	a.LowestPriceFound = &price
	store := lowest.StoreSlug
	a.LowestPriceStore = &store
	url := lowest.ProductURL
	a.LowestPriceURL = &url

	if price.LessThanOrEqual(a.TargetPrice) {
		if !a.IsTriggered {
			a.IsTriggered = true
			triggeredAt := now
			a.TriggeredAt = &triggeredAt
			return EvalOutcome{Triggered: true, Lowest: &lowest}
		}
		// Already triggered and still below target, no new notification.
		return EvalOutcome{Lowest: &lowest}
	}

	if a.IsTriggered {
		a.IsTriggered = false
		a.TriggeredAt = nil
		return EvalOutcome{Rearmed: true, Lowest: &lowest}
	}
	return EvalOutcome{Lowest: &lowest}
}
