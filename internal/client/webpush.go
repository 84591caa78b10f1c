package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

var (
	ErrWebPushNotConfigured = errors.New("Web Push VAPID keys not configured")

	// ErrWebPushGone marks a subscription the browser has revoked;
	// callers should deactivate it instead of retrying.
	ErrWebPushGone = errors.New("Web Push subscription gone")
)

type webPushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Icon  string `json:"icon"`
}

// WebPushSendPriceAlert delivers a price-drop notification to one
// browser subscription.
func (c Client) WebPushSendPriceAlert(
	ctx context.Context, sub model.PushSubscription, productName string,
	price decimal.Decimal, targetPrice decimal.Decimal, storeName string, productURL string,
) error {
	if c.VAPIDPrivateKey == "" || c.VAPIDPublicKey == "" {
		return ErrWebPushNotConfigured
	}

	payload, err := json.Marshal(webPushPayload{
		Title: "QİYMƏT DÜŞDÜ! / PRICE DROP!",
		Body: productName + "\n" +
			price.StringFixed(2) + " ₼ (hədəf: " + targetPrice.StringFixed(2) + " ₼)\n" +
			storeName,
		URL:  productURL,
		Icon: "/icon-192.png",
	})
	if err != nil {
		return errors.Wrap(err, "error marshalling Web Push payload")
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      c.Client,
		Subscriber:      c.VAPIDSubject,
		VAPIDPublicKey:  c.VAPIDPublicKey,
		VAPIDPrivateKey: c.VAPIDPrivateKey,
		TTL:             3600,
	})
	if err != nil {
		return errors.Wrapf(err, "error sending Web Push to endpoint: %s", sub.Endpoint)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			c.Logger.Errorf("WebPushSendPriceAlert: Error closing response body, err: %v", cerr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(ErrWebPushGone, "endpoint: %s, status: %d", sub.Endpoint, resp.StatusCode)
	case resp.StatusCode >= 400:
		return errors.Errorf("Web Push rejected, endpoint: %s, status: %d", sub.Endpoint, resp.StatusCode)
	}
	return nil
}
