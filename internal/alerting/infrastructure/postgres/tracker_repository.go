package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerting "labajada-cloud/internal/alerting/domain"
)

// TrackerRepository stores sustained-condition tracker state. Rows are
// upserted and never deleted; a NULL started_at marks an inactive episode.
type TrackerRepository struct {
	db *sql.DB
}

// NewTrackerRepository constructs a repository.
func NewTrackerRepository(db *sql.DB) *TrackerRepository {
	return &TrackerRepository{db: db}
}

// Get fetches tracker state for a condition and subject. The global trackers
// use the empty subject ID.
func (r *TrackerRepository) Get(ctx context.Context, condition alerting.Condition, subjectID string) (*alerting.TrackerState, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tracker repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT condition, subject_id, started_at, last_seen_at, broken_at
FROM condition_trackers
WHERE condition = $1 AND subject_id = $2`, string(condition), subjectID)

	var state alerting.TrackerState
	var conditionName string
	var startedAt, brokenAt sql.NullTime
	if err := row.Scan(
		&conditionName,
		&state.SubjectID,
		&startedAt,
		&state.LastSeenAt,
		&brokenAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	state.Condition = alerting.Condition(conditionName)
	state.LastSeenAt = state.LastSeenAt.UTC()
	if startedAt.Valid {
		state.StartedAt = startedAt.Time.UTC()
	}
	if brokenAt.Valid {
		state.BrokenAt = brokenAt.Time.UTC()
	}
	return &state, nil
}

// Upsert inserts or updates tracker state.
func (r *TrackerRepository) Upsert(ctx context.Context, state *alerting.TrackerState) error {
	if r == nil || r.db == nil {
		return errors.New("tracker repo: nil db")
	}
	if state == nil {
		return errors.New("tracker repo: nil state")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO condition_trackers (
	condition, subject_id, started_at, last_seen_at, broken_at
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (condition, subject_id)
DO UPDATE SET
	started_at = EXCLUDED.started_at,
	last_seen_at = EXCLUDED.last_seen_at,
	broken_at = EXCLUDED.broken_at`,
		string(state.Condition),
		state.SubjectID,
		nullTime(state.StartedAt),
		state.LastSeenAt,
		nullTime(state.BrokenAt),
	)
	return err
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
