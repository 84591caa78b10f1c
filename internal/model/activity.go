package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ActivitySearch         = "search"
	ActivityAlertCreate    = "alert_create"
	ActivityAlertDelete    = "alert_delete"
	ActivityAlertTriggered = "alert_triggered"
)

// Activity is one row of the admin audit trail.
type Activity struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	UserID     *primitive.ObjectID `bson:"user_id"`
	TelegramID *int64              `bson:"telegram_id,omitempty"`
	Action     string              `bson:"action"`
	Detail     string              `bson:"detail"`
	CreatedAt  time.Time           `bson:"created_at"`
}
