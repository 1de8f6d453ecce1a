package segment

import (
	"context"
	"sync"
)

// MemoryAssignmentStore is an in-memory implementation of AssignmentStore.
// It's useful for testing and single-process deployments.
type MemoryAssignmentStore struct {
	assignments map[string]Assignment
	mu          sync.RWMutex
}

// NewMemoryAssignmentStore creates an empty in-memory assignment store.
func NewMemoryAssignmentStore() *MemoryAssignmentStore {
	return &MemoryAssignmentStore{
		assignments: make(map[string]Assignment),
	}
}

// Get returns the stored assignment for the user.
func (m *MemoryAssignmentStore) Get(ctx context.Context, userID string) (Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assignment, ok := m.assignments[userID]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	return assignment, nil
}

// Put stores the assignment, replacing any existing one.
func (m *MemoryAssignmentStore) Put(ctx context.Context, assignment Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.assignments[assignment.UserID] = assignment
	return nil
}

// Delete removes the assignment for the user.
func (m *MemoryAssignmentStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.assignments, userID)
	return nil
}

// Len returns the number of stored assignments.
func (m *MemoryAssignmentStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assignments)
}
