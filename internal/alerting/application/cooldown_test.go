package application

import (
	"context"
	"testing"
	"time"

	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/alerting/infrastructure/memory"
)

func TestCooldownBlocksWithinWindow(t *testing.T) {
	logs := memory.NewLogStore()
	gate, err := NewCooldownGate(logs, 0, 0)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	ctx := context.Background()
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	logs.Append(ctx, &alerting.LogEntry{ID: "1", Timestamp: sentAt, AlertType: alerting.ConditionEpic, Sent: 3})

	allowed, err := gate.IsAllowed(ctx, alerting.ConditionEpic, sentAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("is allowed: %v", err)
	}
	if allowed {
		t.Fatal("expected epic blocked one minute after sending")
	}

	allowed, _ = gate.IsAllowed(ctx, alerting.ConditionEpic, sentAt.Add(119*time.Minute))
	if allowed {
		t.Fatal("expected epic still blocked just inside the window")
	}

	allowed, _ = gate.IsAllowed(ctx, alerting.ConditionEpic, sentAt.Add(121*time.Minute))
	if !allowed {
		t.Fatal("expected epic allowed after the window")
	}
}

func TestCooldownIsPerType(t *testing.T) {
	logs := memory.NewLogStore()
	gate, _ := NewCooldownGate(logs, 0, 0)
	ctx := context.Background()
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	logs.Append(ctx, &alerting.LogEntry{ID: "1", Timestamp: sentAt, AlertType: alerting.ConditionEpic, Sent: 1})

	allowed, _ := gate.IsAllowed(ctx, alerting.ConditionDangerous, sentAt.Add(time.Minute))
	if !allowed {
		t.Fatal("expected an epic entry to not block dangerous")
	}
}

func TestCooldownOnlyInspectsRecentEntries(t *testing.T) {
	logs := memory.NewLogStore()
	gate, _ := NewCooldownGate(logs, 0, 0)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// An in-window epic entry pushed past the inspection depth by newer
	// entries of other types is no longer considered.
	logs.Append(ctx, &alerting.LogEntry{ID: "old", Timestamp: now.Add(-30 * time.Minute), AlertType: alerting.ConditionEpic, Sent: 1})
	for i := 0; i < 5; i++ {
		logs.Append(ctx, &alerting.LogEntry{
			ID:        string(rune('a' + i)),
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
			AlertType: alerting.ConditionGood,
			Sent:      1,
		})
	}

	blocked, err := gate.BlockedTypes(ctx, now)
	if err != nil {
		t.Fatalf("blocked types: %v", err)
	}
	if blocked[alerting.ConditionEpic] {
		t.Fatal("expected epic entry outside the inspection depth to be ignored")
	}
	if !blocked[alerting.ConditionGood] {
		t.Fatal("expected good to be blocked")
	}
}
