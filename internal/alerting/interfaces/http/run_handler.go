package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	alertapp "labajada-cloud/internal/alerting/application"
	alerting "labajada-cloud/internal/alerting/domain"
)

// RunHandler exposes the stateless evaluation surface for external cron
// schedulers. The shared secret is checked before anything else runs.
type RunHandler struct {
	orchestrator *alertapp.Orchestrator
	cronSecret   string
}

// NewRunHandler constructs a run handler.
func NewRunHandler(orchestrator *alertapp.Orchestrator, cronSecret string) (*RunHandler, error) {
	if orchestrator == nil {
		return nil, errors.New("run handler: nil orchestrator")
	}
	if cronSecret == "" {
		return nil, alerting.ErrNotConfigured
	}
	return &RunHandler{orchestrator: orchestrator, cronSecret: cronSecret}, nil
}

// ServeHTTP handles POST /api/v1/alerts/run.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := h.orchestrator.RunPass(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, alerting.ErrNoWindData):
			http.Error(w, "no wind data", http.StatusBadGateway)
		case errors.Is(err, alerting.ErrStoreUnavailable):
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func (h *RunHandler) authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) == 1
}
