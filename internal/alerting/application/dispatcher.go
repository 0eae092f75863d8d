package application

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/observability/metrics"
)

// Transport delivers a push payload to one subscription endpoint.
type Transport interface {
	Send(ctx context.Context, sub alerting.PushSubscription, payload alerting.Payload) (alerting.Outcome, error)
}

// SubscriberStore manages the push subscription registry.
type SubscriberStore interface {
	ListActive(ctx context.Context) ([]alerting.Subscriber, error)
	Upsert(ctx context.Context, sub *alerting.Subscriber) error
	Deactivate(ctx context.Context, id string) error
}

// Dispatcher formats and delivers one alert to one subscriber, recording the
// outcome. An expired endpoint is soft-deleted; delivery errors are counted,
// never propagated.
type Dispatcher struct {
	transport   Transport
	subscribers SubscriberStore
	log         zerolog.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(transport Transport, subscribers SubscriberStore, log zerolog.Logger) (*Dispatcher, error) {
	if transport == nil {
		return nil, errors.New("dispatcher: nil transport")
	}
	if subscribers == nil {
		return nil, errors.New("dispatcher: nil subscriber store")
	}
	return &Dispatcher{transport: transport, subscribers: subscribers, log: log}, nil
}

// Dispatch delivers the alert and returns the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, sub alerting.Subscriber, alert alerting.Alert) alerting.Outcome {
	if d == nil || d.transport == nil {
		return alerting.OutcomeFailed
	}
	payload := alerting.BuildPayload(alert)
	outcome, err := d.transport.Send(ctx, sub.Subscription, payload)
	if err != nil && outcome != alerting.OutcomeExpired {
		d.log.Warn().Err(err).Str("subscriber", sub.ID).Str("alert", string(alert.Type)).Msg("push delivery failed")
		outcome = alerting.OutcomeFailed
	}
	if outcome == alerting.OutcomeExpired {
		if err := d.subscribers.Deactivate(ctx, sub.ID); err != nil {
			d.log.Warn().Err(err).Str("subscriber", sub.ID).Msg("deactivate expired subscriber failed")
		}
	}
	metrics.IncDispatch(string(outcome))
	return outcome
}
