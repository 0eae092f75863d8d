package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	alerting "labajada-cloud/internal/alerting/domain"
)

// WebPushTransport delivers payloads over the Web Push protocol with VAPID
// authentication. A 404 or 410 from the push service marks the subscription
// expired.
type WebPushTransport struct {
	vapidPublicKey  string
	vapidPrivateKey string
	subscriberEmail string
	ttl             int
	client          *http.Client
}

// WebPushOption configures the transport.
type WebPushOption func(*WebPushTransport)

// WithPushClient overrides the HTTP client used for push requests.
func WithPushClient(client *http.Client) WebPushOption {
	return func(t *WebPushTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTTL sets the push message TTL in seconds.
func WithTTL(seconds int) WebPushOption {
	return func(t *WebPushTransport) {
		if seconds > 0 {
			t.ttl = seconds
		}
	}
}

// NewWebPushTransport constructs the transport. Missing VAPID keys are a
// configuration error surfaced at startup, not at send time.
func NewWebPushTransport(vapidPublicKey, vapidPrivateKey, subscriberEmail string, opts ...WebPushOption) (*WebPushTransport, error) {
	if vapidPublicKey == "" || vapidPrivateKey == "" {
		return nil, alerting.ErrNotConfigured
	}
	t := &WebPushTransport{
		vapidPublicKey:  vapidPublicKey,
		vapidPrivateKey: vapidPrivateKey,
		subscriberEmail: subscriberEmail,
		ttl:             3600,
		client:          &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Send encrypts and posts the payload to the subscription endpoint.
func (t *WebPushTransport) Send(ctx context.Context, sub alerting.PushSubscription, payload alerting.Payload) (alerting.Outcome, error) {
	if t == nil {
		return alerting.OutcomeFailed, errors.New("webpush: nil transport")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return alerting.OutcomeFailed, err
	}
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}
	resp, err := webpush.SendNotificationWithContext(ctx, body, target, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.subscriberEmail,
		VAPIDPublicKey:  t.vapidPublicKey,
		VAPIDPrivateKey: t.vapidPrivateKey,
		TTL:             t.ttl,
	})
	if err != nil {
		return alerting.OutcomeFailed, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return alerting.OutcomeExpired, nil
	case resp.StatusCode >= 300:
		return alerting.OutcomeFailed, errors.New("webpush: push service returned " + resp.Status)
	default:
		return alerting.OutcomeSent, nil
	}
}
