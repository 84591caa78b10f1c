package model

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification records one delivered trigger event. The unique
// (alert_id, triggered_at) index makes delivery idempotent per
// transition: a retried evaluation of the same trigger cannot fire a
// second time.
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	AlertID     primitive.ObjectID `bson:"alert_id"`
	TriggeredAt time.Time          `bson:"triggered_at"`
	Price       decimal.Decimal    `bson:"price"`
	StoreSlug   string             `bson:"store_slug"`
	SentAt      time.Time          `bson:"sent_at"`
}
