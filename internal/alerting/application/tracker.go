package application

import (
	"context"
	"errors"
	"math"
	"time"

	alerting "labajada-cloud/internal/alerting/domain"
)

// TrackerStore persists condition tracker state. Every write is an upsert;
// records are never deleted so sustained episodes survive gaps between
// stateless invocations.
type TrackerStore interface {
	Get(ctx context.Context, condition alerting.Condition, subjectID string) (*alerting.TrackerState, error)
	Upsert(ctx context.Context, state *alerting.TrackerState) error
}

// Tracker maintains per-condition "continuously true since" state and
// reports whether the required duration has elapsed.
type Tracker struct {
	store    TrackerStore
	required alerting.SustainedMinutes
}

// NewTracker constructs a sustained-condition tracker.
func NewTracker(store TrackerStore, required alerting.SustainedMinutes) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("tracker: nil store")
	}
	return &Tracker{store: store, required: required}, nil
}

// Update records one observation of a condition and reports whether it has
// held continuously for the required duration. Sustained stays true on every
// subsequent call until the condition breaks; a single false observation
// resets the episode.
func (t *Tracker) Update(ctx context.Context, condition alerting.Condition, subjectID string, met bool, now time.Time) (alerting.TrackerResult, error) {
	if t == nil || t.store == nil {
		return alerting.TrackerResult{}, errors.New("tracker: nil store")
	}
	state, err := t.store.Get(ctx, condition, subjectID)
	if err != nil {
		return alerting.TrackerResult{}, err
	}
	return t.advance(ctx, condition, subjectID, state, met, now)
}

// UpdateEdge is Update for edge-triggered conditions: starting an episode
// requires the edge observation, but once active the episode continues as
// long as the holding observation stays true.
func (t *Tracker) UpdateEdge(ctx context.Context, condition alerting.Condition, subjectID string, edge, holding bool, now time.Time) (alerting.TrackerResult, error) {
	if t == nil || t.store == nil {
		return alerting.TrackerResult{}, errors.New("tracker: nil store")
	}
	state, err := t.store.Get(ctx, condition, subjectID)
	if err != nil {
		return alerting.TrackerResult{}, err
	}
	met := edge
	if state != nil && state.Active() {
		met = holding
	}
	return t.advance(ctx, condition, subjectID, state, met, now)
}

func (t *Tracker) advance(ctx context.Context, condition alerting.Condition, subjectID string, state *alerting.TrackerState, met bool, now time.Time) (alerting.TrackerResult, error) {
	now = now.UTC()
	if state == nil {
		state = &alerting.TrackerState{Condition: condition, SubjectID: subjectID}
	}

	if !met {
		if state.Active() {
			state.BrokenAt = now
		}
		state.StartedAt = time.Time{}
		state.LastSeenAt = now
		if err := t.store.Upsert(ctx, state); err != nil {
			return alerting.TrackerResult{}, err
		}
		return alerting.TrackerResult{}, nil
	}

	if !state.Active() {
		state.StartedAt = now
		state.LastSeenAt = now
		if err := t.store.Upsert(ctx, state); err != nil {
			return alerting.TrackerResult{}, err
		}
		return alerting.TrackerResult{}, nil
	}

	// Re-delivery of the same observation only refreshes lastSeen; duration
	// is always derived from startedAt, never accumulated.
	state.LastSeenAt = now
	if err := t.store.Upsert(ctx, state); err != nil {
		return alerting.TrackerResult{}, err
	}
	active := now.Sub(state.StartedAt).Minutes()
	return alerting.TrackerResult{
		Sustained:     active >= float64(t.required.For(condition)),
		MinutesActive: int(math.Round(active)),
	}, nil
}
