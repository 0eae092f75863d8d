package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	alertapp "labajada-cloud/internal/alerting/application"
	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/observability/metrics"
)

// SubscriberID derives the stable subscriber ID from the push endpoint.
func SubscriberID(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return hex.EncodeToString(sum[:])[:20]
}

type subscribeRequest struct {
	Subscription alerting.PushSubscription `json:"subscription"`
	Config       alerting.SubscriberConfig `json:"config"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

type subscribeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SubscribeHandler manages the push subscription registry. The dashboard
// calls it cross-origin, so responses carry permissive CORS headers.
type SubscribeHandler struct {
	store alertapp.SubscriberStore
	log   zerolog.Logger
}

// NewSubscribeHandler constructs a subscribe handler.
func NewSubscribeHandler(store alertapp.SubscriberStore, log zerolog.Logger) (*SubscribeHandler, error) {
	if store == nil {
		return nil, errors.New("subscribe handler: nil store")
	}
	return &SubscribeHandler{store: store, log: log}, nil
}

// ServeHTTP handles /api/v1/push/subscriptions.
func (h *SubscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		h.handleSubscribe(w, r)
	case http.MethodDelete:
		h.handleUnsubscribe(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *SubscribeHandler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Subscription.Endpoint == "" || req.Subscription.Keys.P256dh == "" || req.Subscription.Keys.Auth == "" {
		http.Error(w, "subscription endpoint and keys are required", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	sub := &alerting.Subscriber{
		ID:           SubscriberID(req.Subscription.Endpoint),
		Subscription: req.Subscription,
		Config:       req.Config.Normalize(),
		Active:       true,
		SubscribedAt: now,
		LastActivity: now,
	}
	if err := h.store.Upsert(r.Context(), sub); err != nil {
		h.log.Error().Err(err).Str("subscriber", sub.ID).Msg("subscription upsert failed")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	metrics.IncSubscriptionEvent("subscribed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(subscribeResponse{ID: sub.ID, Status: "subscribed"})
}

func (h *SubscribeHandler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Endpoint == "" {
		http.Error(w, "endpoint is required", http.StatusBadRequest)
		return
	}

	id := SubscriberID(req.Endpoint)
	if err := h.store.Deactivate(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("subscriber", id).Msg("subscription deactivate failed")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	metrics.IncSubscriptionEvent("unsubscribed")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(subscribeResponse{ID: id, Status: "unsubscribed"})
}
