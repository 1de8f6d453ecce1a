package analytics

import (
	"context"
	"slices"
	"sync"
)

// MemorySink is a bounded in-process event log. When full, the oldest events
// are discarded first. Useful for tests and local development.
type MemorySink struct {
	capacity int
	mu       sync.Mutex
	events   []Event
}

// NewMemorySink creates a memory sink keeping at most capacity events.
// Capacity must be positive, otherwise it panics.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		panic("analytics: memory sink capacity must be positive")
	}
	return &MemorySink{capacity: capacity}
}

// Append stores the event, evicting the oldest one if at capacity.
func (m *MemorySink) Append(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.events) >= m.capacity {
		m.events = m.events[1:]
	}
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of the stored events, oldest first.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// Len returns the number of stored events.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
