package server

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ruhidibadli/ucuzbot/internal/client"
	"github.com/ruhidibadli/ucuzbot/internal/database"
	"github.com/ruhidibadli/ucuzbot/internal/misc"
	"github.com/ruhidibadli/ucuzbot/internal/model"
)

const deliveryAttempts = 3

// dispatchTrigger delivers exactly one notification per trigger
// transition. The notifications collection is the idempotency ledger:
// the (alert_id, triggered_at) claim is inserted first, and delivery
// only proceeds when the claim is new. Delivery failure never rolls
// back alert state, the state reflects price reality.
func (s Server) dispatchTrigger(ctx context.Context, a model.Alert, lowest model.Listing) {
	alertID := a.ID.Hex()
	if a.TriggeredAt == nil {
		s.Logger.Errorf("dispatchTrigger: Triggered Alert has no TriggeredAt, ID: %s", alertID)
		return
	}

	err := s.DB.NotificationInsert(ctx, model.Notification{
		AlertID:     a.ID,
		TriggeredAt: *a.TriggeredAt,
		Price:       lowest.Price,
		StoreSlug:   lowest.StoreSlug,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotificationAlreadySent) {
			s.Logger.Debugf("dispatchTrigger: Notification already sent for Alert, ID: %s, triggered at: %s",
				alertID, a.TriggeredAt)
			return
		}
		s.Logger.Errorf("dispatchTrigger: Error claiming Notification for Alert, ID: %s, err: %v", alertID, err)
		return
	}

	productName := misc.StringLimit(lowest.ProductName, 120)

	subs := map[string]model.PushSubscription{}
	if a.PushEndpoint != "" {
		sub, err := s.DB.PushSubscriptionFindByEndpoint(ctx, a.PushEndpoint)
		if err != nil {
			s.Logger.Errorf("dispatchTrigger: Error finding PushSubscription for Alert, ID: %s, err: %v", alertID, err)
		} else if sub.IsActive {
			subs[sub.Endpoint] = sub
		}
	}
	if a.UserID != nil {
		userSubs, err := s.DB.PushSubscriptionsFindActiveForUser(ctx, *a.UserID)
		if err != nil {
			s.Logger.Errorf("dispatchTrigger: Error finding PushSubscriptions of Alert owner, ID: %s, err: %v",
				alertID, err)
		}
		for _, sub := range userSubs {
			subs[sub.Endpoint] = sub
		}
	}

	for _, sub := range subs {
		sub := sub
		err := s.sendWithRetry(func() error {
			return s.Client.WebPushSendPriceAlert(ctx, sub, productName,
				lowest.Price, a.TargetPrice, lowest.StoreName, lowest.ProductURL)
		})
		if err != nil {
			if errors.Is(err, client.ErrWebPushGone) {
				s.Logger.Infof("dispatchTrigger: Push subscription gone, deactivating, endpoint: %s",
					misc.StringLimit(sub.Endpoint, 50))
				if err = s.DB.PushSubscriptionDeactivate(ctx, sub.Endpoint); err != nil {
					s.Logger.Errorf("dispatchTrigger: Error deactivating PushSubscription, err: %v", err)
				}
				continue
			}
			s.Logger.Errorf("dispatchTrigger: Error sending Web Push for Alert, ID: %s, err: %v", alertID, err)
			continue
		}
		s.Logger.Infof("dispatchTrigger: Sent Web Push for Alert, ID: %s, endpoint: %s",
			alertID, misc.StringLimit(sub.Endpoint, 50))
	}

	if a.UserID != nil {
		u, err := s.DB.UserFindByID(ctx, a.UserID.Hex())
		if err != nil {
			s.Logger.Errorf("dispatchTrigger: Error finding Alert owner, ID: %s, err: %v", alertID, err)
			return
		}
		if u.TelegramID != nil {
			err = s.sendWithRetry(func() error {
				return s.Client.TelegramSendPriceAlert(*u.TelegramID, productName,
					lowest.Price, a.TargetPrice, lowest.StoreName, lowest.ProductURL)
			})
			if err != nil {
				s.Logger.Errorf("dispatchTrigger: Error sending Telegram message for Alert, ID: %s, err: %v",
					alertID, err)
				return
			}
			s.Logger.Infof("dispatchTrigger: Sent Telegram message for Alert, ID: %s, chat: %d",
				alertID, *u.TelegramID)
		}
	}
}

// sendWithRetry retries transient delivery failures with the same
// 2s/4s backoff used for store fetches. Gone subscriptions and
// unconfigured channels are permanent, not retried.
func (s Server) sendWithRetry(send func() error) error {
	var err error
	for attempt := 1; attempt <= deliveryAttempts; attempt++ {
		if err = send(); err == nil {
			return nil
		}
		if errors.Is(err, client.ErrWebPushGone) ||
			errors.Is(err, client.ErrWebPushNotConfigured) ||
			errors.Is(err, client.ErrTelegramNotConfigured) {
			return err
		}
		if attempt < deliveryAttempts {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}
	return err
}
