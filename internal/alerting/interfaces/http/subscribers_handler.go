package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	alertapp "labajada-cloud/internal/alerting/application"
	alerting "labajada-cloud/internal/alerting/domain"
)

// subscriberView is the admin-facing projection of a subscriber. Push
// endpoints and encryption keys never leave the store.
type subscriberView struct {
	ID           string                    `json:"id"`
	Config       alerting.SubscriberConfig `json:"config"`
	SubscribedAt time.Time                 `json:"subscribed_at"`
	LastActivity time.Time                 `json:"last_activity"`
}

// SubscribersHandler lists the active push subscribers.
type SubscribersHandler struct {
	store alertapp.SubscriberStore
}

// NewSubscribersHandler constructs a subscribers handler.
func NewSubscribersHandler(store alertapp.SubscriberStore) (*SubscribersHandler, error) {
	if store == nil {
		return nil, errors.New("subscribers handler: nil store")
	}
	return &SubscribersHandler{store: store}, nil
}

// ServeHTTP handles GET /api/v1/subscribers.
func (h *SubscribersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	subscribers, err := h.store.ListActive(r.Context())
	if err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	views := make([]subscriberView, 0, len(subscribers))
	for _, sub := range subscribers {
		views = append(views, subscriberView{
			ID:           sub.ID,
			Config:       sub.Config,
			SubscribedAt: sub.SubscribedAt,
			LastActivity: sub.LastActivity,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}
