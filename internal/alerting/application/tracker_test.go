package application

import (
	"context"
	"testing"
	"time"

	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/alerting/infrastructure/memory"
)

func newTestTracker(t *testing.T) (*Tracker, *memory.TrackerStore) {
	t.Helper()
	store := memory.NewTrackerStore()
	tracker, err := NewTracker(store, alerting.DefaultSustainedMinutes())
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	return tracker, store
}

func TestTrackerSustainedAfterRequiredDuration(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	result, err := tracker.Update(ctx, alerting.ConditionGood, "sub-1", true, start)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.Sustained {
		t.Fatal("expected not sustained on first observation")
	}

	result, err = tracker.Update(ctx, alerting.ConditionGood, "sub-1", true, start.Add(4*time.Minute+59*time.Second))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.Sustained {
		t.Fatal("expected not sustained just under 5 minutes")
	}

	result, err = tracker.Update(ctx, alerting.ConditionGood, "sub-1", true, start.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !result.Sustained {
		t.Fatal("expected sustained at exactly 5 minutes")
	}
	if result.MinutesActive != 5 {
		t.Fatalf("expected 5 minutes active, got %d", result.MinutesActive)
	}
}

func TestTrackerSustainedStaysTrueWhileHolding(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tracker.Update(ctx, alerting.ConditionEpic, "", true, start)
	for _, offset := range []time.Duration{10 * time.Minute, 15 * time.Minute, 40 * time.Minute} {
		result, err := tracker.Update(ctx, alerting.ConditionEpic, "", true, start.Add(offset))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !result.Sustained {
			t.Fatalf("expected sustained at %s", offset)
		}
	}
}

func TestTrackerSingleBreakResetsEpisode(t *testing.T) {
	tracker, store := newTestTracker(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tracker.Update(ctx, alerting.ConditionEpic, "", true, start)
	tracker.Update(ctx, alerting.ConditionEpic, "", true, start.Add(11*time.Minute))

	result, err := tracker.Update(ctx, alerting.ConditionEpic, "", false, start.Add(12*time.Minute))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.Sustained {
		t.Fatal("expected break to clear sustained")
	}
	state, _ := store.Get(ctx, alerting.ConditionEpic, "")
	if state == nil || state.Active() {
		t.Fatal("expected inactive state after break")
	}
	if state.BrokenAt.IsZero() {
		t.Fatal("expected brokenAt to be recorded")
	}

	// A fresh episode counts from its own start.
	result, _ = tracker.Update(ctx, alerting.ConditionEpic, "", true, start.Add(13*time.Minute))
	if result.Sustained {
		t.Fatal("expected new episode to start from zero")
	}
}

func TestTrackerIdempotentSameMinute(t *testing.T) {
	tracker, store := newTestTracker(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tracker.Update(ctx, alerting.ConditionGood, "sub-1", true, start)
	tracker.Update(ctx, alerting.ConditionGood, "sub-1", true, start.Add(3*time.Minute))
	tracker.Update(ctx, alerting.ConditionGood, "sub-1", true, start.Add(3*time.Minute))

	state, _ := store.Get(ctx, alerting.ConditionGood, "sub-1")
	if !state.StartedAt.Equal(start) {
		t.Fatalf("expected startedAt unchanged by re-delivery, got %s", state.StartedAt)
	}
	result, _ := tracker.Update(ctx, alerting.ConditionGood, "sub-1", true, start.Add(4*time.Minute))
	if result.Sustained {
		t.Fatal("expected duration derived from startedAt, not accumulated")
	}
}

func TestTrackerEdgeTriggered(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Holding without the edge never starts an episode.
	result, err := tracker.UpdateEdge(ctx, alerting.ConditionWindUp, "sub-1", false, true, start)
	if err != nil {
		t.Fatalf("update edge: %v", err)
	}
	if result.Sustained {
		t.Fatal("expected no episode without an edge")
	}

	// The edge starts it; holding keeps it alive past the requirement.
	tracker.UpdateEdge(ctx, alerting.ConditionWindUp, "sub-1", true, true, start.Add(time.Minute))
	result, _ = tracker.UpdateEdge(ctx, alerting.ConditionWindUp, "sub-1", false, true, start.Add(6*time.Minute))
	if !result.Sustained {
		t.Fatal("expected sustained after holding for 5 minutes")
	}

	// Dropping below the minimum resets it even without an edge.
	result, _ = tracker.UpdateEdge(ctx, alerting.ConditionWindUp, "sub-1", false, false, start.Add(7*time.Minute))
	if result.Sustained {
		t.Fatal("expected drop to reset the episode")
	}
}
