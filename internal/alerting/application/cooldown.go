package application

import (
	"context"
	"errors"
	"time"

	alerting "labajada-cloud/internal/alerting/domain"
)

// LogStore persists the append-only alert log.
type LogStore interface {
	Append(ctx context.Context, entry *alerting.LogEntry) error
	Recent(ctx context.Context, limit int) ([]alerting.LogEntry, error)
}

const (
	defaultCooldown      = 120 * time.Minute
	defaultCooldownDepth = 5
)

// CooldownGate suppresses re-sending the same alert type within the
// cooldown window. The check is per type: an epic alert firing does not
// block a later dangerous alert.
type CooldownGate struct {
	logs     LogStore
	window   time.Duration
	logDepth int
}

// NewCooldownGate constructs a gate over the alert log. It inspects the
// most recent logDepth entries (default 5) against a 120 minute window.
func NewCooldownGate(logs LogStore, window time.Duration, logDepth int) (*CooldownGate, error) {
	if logs == nil {
		return nil, errors.New("cooldown gate: nil log store")
	}
	if window <= 0 {
		window = defaultCooldown
	}
	if logDepth <= 0 {
		logDepth = defaultCooldownDepth
	}
	return &CooldownGate{logs: logs, window: window, logDepth: logDepth}, nil
}

// BlockedTypes returns the alert types that fired within the cooldown
// window, loaded once per pass.
func (g *CooldownGate) BlockedTypes(ctx context.Context, now time.Time) (map[alerting.Condition]bool, error) {
	if g == nil || g.logs == nil {
		return nil, errors.New("cooldown gate: nil log store")
	}
	entries, err := g.logs.Recent(ctx, g.logDepth)
	if err != nil {
		return nil, err
	}
	cutoff := now.Add(-g.window)
	blocked := make(map[alerting.Condition]bool)
	for _, entry := range entries {
		if entry.Timestamp.After(cutoff) {
			blocked[entry.AlertType] = true
		}
	}
	return blocked, nil
}

// IsAllowed reports whether an alert of the given type may fire at now.
func (g *CooldownGate) IsAllowed(ctx context.Context, alertType alerting.Condition, now time.Time) (bool, error) {
	blocked, err := g.BlockedTypes(ctx, now)
	if err != nil {
		return false, err
	}
	return !blocked[alertType], nil
}
