package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	alertapp "labajada-cloud/internal/alerting/application"
)

const maxLogLimit = 500

// LogHandler serves the recent alert log.
type LogHandler struct {
	logs alertapp.LogStore
}

// NewLogHandler constructs a log handler.
func NewLogHandler(logs alertapp.LogStore) (*LogHandler, error) {
	if logs == nil {
		return nil, errors.New("log handler: nil store")
	}
	return &LogHandler{logs: logs}, nil
}

// ServeHTTP handles GET /api/v1/alerts/log.
func (h *LogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	entries, err := h.logs.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}
