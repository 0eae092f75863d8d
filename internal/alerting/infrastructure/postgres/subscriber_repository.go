package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	alerting "labajada-cloud/internal/alerting/domain"
)

// SubscriberRepository stores push subscribers. Expired endpoints are kept
// with active = false so re-subscription reuses the same row.
type SubscriberRepository struct {
	db *sql.DB
}

// NewSubscriberRepository constructs a repository.
func NewSubscriberRepository(db *sql.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// ListActive returns all subscribers that may still receive pushes.
func (r *SubscriberRepository) ListActive(ctx context.Context) ([]alerting.Subscriber, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("subscriber repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, endpoint, p256dh, auth, config, active, subscribed_at, last_activity
FROM push_subscribers
WHERE active
ORDER BY subscribed_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscribers []alerting.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		subscribers = append(subscribers, sub)
	}
	return subscribers, rows.Err()
}

// Get fetches one subscriber regardless of active state.
func (r *SubscriberRepository) Get(ctx context.Context, id string) (*alerting.Subscriber, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("subscriber repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, endpoint, p256dh, auth, config, active, subscribed_at, last_activity
FROM push_subscribers
WHERE id = $1`, id)
	sub, err := scanSubscriber(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Upsert inserts or updates a subscriber, reactivating it and refreshing the
// activity timestamp.
func (r *SubscriberRepository) Upsert(ctx context.Context, sub *alerting.Subscriber) error {
	if r == nil || r.db == nil {
		return errors.New("subscriber repo: nil db")
	}
	if sub == nil {
		return errors.New("subscriber repo: nil subscriber")
	}
	config, err := json.Marshal(sub.Config)
	if err != nil {
		return err
	}
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now().UTC()
	}
	if sub.LastActivity.IsZero() {
		sub.LastActivity = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO push_subscribers (
	id, endpoint, p256dh, auth, config, active, subscribed_at, last_activity
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT (id)
DO UPDATE SET
	endpoint = EXCLUDED.endpoint,
	p256dh = EXCLUDED.p256dh,
	auth = EXCLUDED.auth,
	config = EXCLUDED.config,
	active = EXCLUDED.active,
	last_activity = EXCLUDED.last_activity`,
		sub.ID,
		sub.Subscription.Endpoint,
		sub.Subscription.Keys.P256dh,
		sub.Subscription.Keys.Auth,
		config,
		sub.Active,
		sub.SubscribedAt.UTC(),
		sub.LastActivity.UTC(),
	)
	return err
}

// Deactivate soft-deletes a subscriber.
func (r *SubscriberRepository) Deactivate(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("subscriber repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE push_subscribers
SET active = FALSE, last_activity = $2
WHERE id = $1`, id, time.Now().UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (alerting.Subscriber, error) {
	var sub alerting.Subscriber
	var config []byte
	if err := row.Scan(
		&sub.ID,
		&sub.Subscription.Endpoint,
		&sub.Subscription.Keys.P256dh,
		&sub.Subscription.Keys.Auth,
		&config,
		&sub.Active,
		&sub.SubscribedAt,
		&sub.LastActivity,
	); err != nil {
		return alerting.Subscriber{}, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &sub.Config); err != nil {
			return alerting.Subscriber{}, err
		}
	}
	sub.SubscribedAt = sub.SubscribedAt.UTC()
	sub.LastActivity = sub.LastActivity.UTC()
	return sub, nil
}
