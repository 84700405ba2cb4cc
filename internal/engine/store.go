package engine

import (
	"sync"

	"threat-intel-service/internal/model"
)

// DefaultMaxHistory bounds the rolling event window when no capacity is given.
const DefaultMaxHistory = 5000

// EventStore is an append-only, capacity-bounded window of attack events.
// Once the window is full the oldest event is evicted for every append, so
// insertion order is preserved and eviction is strictly FIFO.
type EventStore struct {
	mu       sync.RWMutex
	events   []model.AttackEvent
	capacity int
}

// NewEventStore creates a store bounded to capacity events.
func NewEventStore(capacity int) *EventStore {
	if capacity <= 0 {
		capacity = DefaultMaxHistory
	}
	return &EventStore{
		events:   make([]model.AttackEvent, 0, capacity),
		capacity: capacity,
	}
}

// Append inserts an event at the tail, evicting exactly one event from the
// head if the window would exceed its capacity.
func (s *EventStore) Append(ev model.AttackEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
	if len(s.events) > s.capacity {
		copy(s.events, s.events[1:])
		s.events = s.events[:len(s.events)-1]
	}
}

// Snapshot returns a consistent copy of the current window. Detection runs
// compute entirely from the snapshot, so ingestion may continue appending
// while a run is in flight.
func (s *EventStore) Snapshot() []model.AttackEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AttackEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the current number of buffered events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Capacity returns the configured window bound.
func (s *EventStore) Capacity() int {
	return s.capacity
}
