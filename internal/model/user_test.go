package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMaxAlerts(t *testing.T) {
	assert.Equal(t, FreeTierMaxAlerts, User{SubscriptionTier: TierFree}.MaxAlerts())
	assert.Equal(t, PremiumTierMaxAlerts, User{SubscriptionTier: TierPremium}.MaxAlerts())
	// Unknown tiers fall back to the free limit.
	assert.Equal(t, FreeTierMaxAlerts, User{SubscriptionTier: "legacy"}.MaxAlerts())
}
