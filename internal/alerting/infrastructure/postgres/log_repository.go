package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerting "labajada-cloud/internal/alerting/domain"
)

// LogRepository stores the append-only alert log.
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository constructs a repository.
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Append inserts one log entry.
func (r *LogRepository) Append(ctx context.Context, entry *alerting.LogEntry) error {
	if r == nil || r.db == nil {
		return errors.New("alert log repo: nil db")
	}
	if entry == nil {
		return errors.New("alert log repo: nil entry")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO alert_log (
	id, sent_at, alert_type, wind_speed, wind_gust, wind_direction, cardinal,
	sent_count, skipped_count, expired_count, created_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7,
	$8, $9, $10, $11
)`,
		entry.ID,
		entry.Timestamp.UTC(),
		string(entry.AlertType),
		entry.WindSpeed,
		sql.NullFloat64{Float64: entry.WindGust, Valid: entry.WindGust != 0},
		sql.NullFloat64{Float64: entry.WindDirection, Valid: entry.WindDirection != 0 || entry.Cardinal != ""},
		sql.NullString{String: entry.Cardinal, Valid: entry.Cardinal != ""},
		entry.Sent,
		entry.Skipped,
		entry.Expired,
		entry.CreatedAt.UTC(),
	)
	return err
}

// Recent returns the most recent entries, newest first.
func (r *LogRepository) Recent(ctx context.Context, limit int) ([]alerting.LogEntry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert log repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, sent_at, alert_type, wind_speed, wind_gust, wind_direction, cardinal,
	sent_count, skipped_count, expired_count, created_at
FROM alert_log
ORDER BY sent_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []alerting.LogEntry
	for rows.Next() {
		var entry alerting.LogEntry
		var alertType string
		var gust, direction sql.NullFloat64
		var cardinal sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&alertType,
			&entry.WindSpeed,
			&gust,
			&direction,
			&cardinal,
			&entry.Sent,
			&entry.Skipped,
			&entry.Expired,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.AlertType = alerting.Condition(alertType)
		entry.Timestamp = entry.Timestamp.UTC()
		entry.CreatedAt = entry.CreatedAt.UTC()
		if gust.Valid {
			entry.WindGust = gust.Float64
		}
		if direction.Valid {
			entry.WindDirection = direction.Float64
		}
		if cardinal.Valid {
			entry.Cardinal = cardinal.String
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
