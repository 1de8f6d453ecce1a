package configstore

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-node setups.
type MemoryStore struct {
	mu          sync.RWMutex
	flags       FlagsDocument
	hasFlags    bool
	segments    SegmentsDocument
	hasSegments bool
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// GetFlags returns the stored flag document.
func (m *MemoryStore) GetFlags(ctx context.Context) (FlagsDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasFlags {
		return FlagsDocument{}, ErrNotFound
	}
	// Copy the map so callers can modify the returned document freely.
	doc := m.flags
	doc.Flags = maps.Clone(doc.Flags)
	return doc, nil
}

// PutFlags validates and stores the flag document.
func (m *MemoryStore) PutFlags(ctx context.Context, doc FlagsDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Equal versions conflict too: two writers that both read version N and
	// write N+1 must not both succeed, or the second silently drops the
	// first's changes.
	if m.hasFlags && doc.Version <= m.flags.Version {
		return ErrVersionConflict
	}
	doc.Flags = maps.Clone(doc.Flags)
	m.flags = doc
	m.hasFlags = true
	return nil
}

// GetSegments returns the stored segment document.
func (m *MemoryStore) GetSegments(ctx context.Context) (SegmentsDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasSegments {
		return SegmentsDocument{}, ErrNotFound
	}
	doc := m.segments
	doc.Segments = maps.Clone(doc.Segments)
	return doc, nil
}

// PutSegments validates and stores the segment document.
func (m *MemoryStore) PutSegments(ctx context.Context, doc SegmentsDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasSegments && doc.Version <= m.segments.Version {
		return ErrVersionConflict
	}
	doc.Segments = maps.Clone(doc.Segments)
	m.segments = doc
	m.hasSegments = true
	return nil
}
