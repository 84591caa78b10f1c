package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription is a browser Web Push endpoint. For anonymous
// visitors the endpoint doubles as an identity for their alerts.
type PushSubscription struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Endpoint  string              `bson:"endpoint"`
	P256DH    string              `bson:"p256dh"`
	Auth      string              `bson:"auth"`
	UserID    *primitive.ObjectID `bson:"user_id"`
	IsActive  bool                `bson:"is_active"`
	CreatedAt time.Time           `bson:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at"`
}
