package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TierFree    = "free"
	TierPremium = "premium"

	FreeTierMaxAlerts    = 5
	PremiumTierMaxAlerts = 50
)

type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Email            string             `bson:"email"`
	PasswordHash     []byte             `bson:"password_hash"`
	FirstName        string             `bson:"first_name"`
	LanguageCode     string             `bson:"language_code"`
	SubscriptionTier string             `bson:"subscription_tier"`
	TelegramID       *int64             `bson:"telegram_id,omitempty"`
	IsActive         bool               `bson:"is_active"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func (u User) MaxAlerts() int {
	if u.SubscriptionTier == TierPremium {
		return PremiumTierMaxAlerts
	}
	return FreeTierMaxAlerts
}
