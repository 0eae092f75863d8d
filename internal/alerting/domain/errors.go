package alerting

import "errors"

var (
	// ErrNoWindData indicates the weather provider returned nothing usable.
	// The pass aborts without touching any tracker.
	ErrNoWindData = errors.New("alerting: no wind data")

	// ErrStoreUnavailable indicates the persistence layer could not be
	// reached before any tracker mutation.
	ErrStoreUnavailable = errors.New("alerting: store unavailable")

	// ErrNotConfigured indicates required credentials or secrets are
	// missing.
	ErrNotConfigured = errors.New("alerting: not configured")

	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("alerting: not found")
)
