package memory

import (
	"context"
	"sort"
	"sync"

	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/wind"
)

// TrackerStore keeps tracker state in memory for the long-running mode,
// where state only needs to survive between ticks, not restarts.
type TrackerStore struct {
	mu     sync.RWMutex
	states map[trackerKey]alerting.TrackerState
}

type trackerKey struct {
	condition alerting.Condition
	subjectID string
}

// NewTrackerStore constructs an empty store.
func NewTrackerStore() *TrackerStore {
	return &TrackerStore{states: make(map[trackerKey]alerting.TrackerState)}
}

// Get fetches tracker state.
func (s *TrackerStore) Get(_ context.Context, condition alerting.Condition, subjectID string) (*alerting.TrackerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[trackerKey{condition, subjectID}]
	if !ok {
		return nil, nil
	}
	copied := state
	return &copied, nil
}

// Upsert stores tracker state.
func (s *TrackerStore) Upsert(_ context.Context, state *alerting.TrackerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[trackerKey{state.Condition, state.SubjectID}] = *state
	return nil
}

// LogStore keeps the alert log in memory, newest first.
type LogStore struct {
	mu      sync.RWMutex
	entries []alerting.LogEntry
}

// NewLogStore constructs an empty store.
func NewLogStore() *LogStore {
	return &LogStore{}
}

// Append records one entry.
func (s *LogStore) Append(_ context.Context, entry *alerting.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	sort.Slice(s.entries, func(i, j int) bool {
		return s.entries[i].Timestamp.After(s.entries[j].Timestamp)
	})
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *LogStore) Recent(_ context.Context, limit int) ([]alerting.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]alerting.LogEntry, limit)
	copy(out, s.entries[:limit])
	return out, nil
}

// SubscriberStore keeps push subscribers in memory.
type SubscriberStore struct {
	mu          sync.RWMutex
	subscribers map[string]alerting.Subscriber
}

// NewSubscriberStore constructs an empty store.
func NewSubscriberStore() *SubscriberStore {
	return &SubscriberStore{subscribers: make(map[string]alerting.Subscriber)}
}

// ListActive returns subscribers with active = true, ordered by ID for
// deterministic iteration.
func (s *SubscriberStore) ListActive(_ context.Context) ([]alerting.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []alerting.Subscriber
	for _, sub := range s.subscribers {
		if sub.Active {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get fetches one subscriber regardless of active state.
func (s *SubscriberStore) Get(_ context.Context, id string) (*alerting.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscribers[id]
	if !ok {
		return nil, nil
	}
	copied := sub
	return &copied, nil
}

// Upsert stores a subscriber.
func (s *SubscriberStore) Upsert(_ context.Context, sub *alerting.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[sub.ID] = *sub
	return nil
}

// Deactivate soft-deletes a subscriber. Unknown IDs are a no-op.
func (s *SubscriberStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscribers[id]
	if !ok {
		return nil
	}
	sub.Active = false
	s.subscribers[id] = sub
	return nil
}

// ReadingStore keeps the most recent reading in memory.
type ReadingStore struct {
	mu     sync.RWMutex
	latest *wind.Reading
}

// NewReadingStore constructs an empty store.
func NewReadingStore() *ReadingStore {
	return &ReadingStore{}
}

// Latest returns the stored reading, or nil before the first save.
func (s *ReadingStore) Latest(_ context.Context) (*wind.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, nil
	}
	copied := *s.latest
	return &copied, nil
}

// SaveLatest overwrites the stored reading.
func (s *ReadingStore) SaveLatest(_ context.Context, reading wind.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &reading
	return nil
}
