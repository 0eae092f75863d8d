package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"labajada-cloud/internal/wind"
)

// ReadingRepository persists the single most recent wind reading so a
// stateless invocation can detect transitions against the previous one.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository constructs a repository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Latest returns the stored reading, or nil when none has been saved yet.
func (r *ReadingRepository) Latest(ctx context.Context) (*wind.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT speed, gust, direction, taken_at
FROM latest_reading
WHERE id = 1`)

	var speed, gust, direction sql.NullFloat64
	var takenAt time.Time
	if err := row.Scan(&speed, &gust, &direction, &takenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	reading := wind.Reading{TakenAt: takenAt.UTC()}
	if speed.Valid {
		reading.Speed = &speed.Float64
	}
	if gust.Valid {
		reading.Gust = &gust.Float64
	}
	if direction.Valid {
		reading.Direction = &direction.Float64
	}
	return &reading, nil
}

// SaveLatest overwrites the stored reading.
func (r *ReadingRepository) SaveLatest(ctx context.Context, reading wind.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	takenAt := reading.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO latest_reading (id, speed, gust, direction, taken_at)
VALUES (1, $1, $2, $3, $4)
ON CONFLICT (id)
DO UPDATE SET
	speed = EXCLUDED.speed,
	gust = EXCLUDED.gust,
	direction = EXCLUDED.direction,
	taken_at = EXCLUDED.taken_at`,
		nullFloat(reading.Speed),
		nullFloat(reading.Gust),
		nullFloat(reading.Direction),
		takenAt.UTC(),
	)
	return err
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
