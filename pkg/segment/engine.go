package segment

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AssignmentStore persists sticky cohort assignments.
type AssignmentStore interface {
	// Get returns the stored assignment for the user.
	// If none exists, it returns ErrAssignmentNotFound.
	Get(ctx context.Context, userID string) (Assignment, error)

	// Put stores the assignment, replacing any existing one.
	Put(ctx context.Context, assignment Assignment) error

	// Delete removes the assignment for the user. Deleting an absent
	// assignment is not an error.
	Delete(ctx context.Context, userID string) error
}

// Provider supplies the current segment definitions, in priority order.
type Provider interface {
	Segments(ctx context.Context) ([]Segment, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) ([]Segment, error)

func (f ProviderFunc) Segments(ctx context.Context) ([]Segment, error) {
	return f(ctx)
}

// Engine classifies users into cohorts and keeps assignments sticky.
type Engine struct {
	store    AssignmentStore
	provider Provider
	log      *slog.Logger
	now      func() time.Time
}

// EngineOption configures engine creation.
type EngineOption func(*Engine)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithNowFunc overrides the clock used for signup-age checks and assignment
// timestamps. Intended for tests.
func WithNowFunc(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a segmentation engine. Store and provider are required
// and the constructor panics without them to fail fast on wiring mistakes.
func NewEngine(store AssignmentStore, provider Provider, opts ...EngineOption) *Engine {
	if store == nil {
		panic("segment: assignment store cannot be nil")
	}
	if provider == nil {
		panic("segment: segment provider cannot be nil")
	}

	e := &Engine{
		store:    store,
		provider: provider,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assign returns the user's cohort, computing and persisting it on first
// call. It never returns an error: when the assignment store or the segment
// configuration is unavailable the user degrades to the regular cohort for
// this call only, without persisting, so a recovered store can still produce
// a proper sticky assignment later.
func (e *Engine) Assign(ctx context.Context, userID string, profile Profile) string {
	segmentID, _ := e.Ensure(ctx, userID, profile)
	return segmentID
}

// Ensure is Assign reporting whether the call persisted a new assignment.
// Fresh is false for existing assignments and for degraded calls that did
// not persist anything, so callers can act on first assignments (analytics,
// welcome flows) without probing the store themselves.
func (e *Engine) Ensure(ctx context.Context, userID string, profile Profile) (segmentID string, fresh bool) {
	existing, err := e.store.Get(ctx, userID)
	switch {
	case err == nil:
		return existing.SegmentID, false
	case !IsNotFound(err):
		e.log.WarnContext(ctx, "assignment store read failed, degrading to regular cohort",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return DefaultSegmentID, false
	}

	segmentID, err = e.Classify(ctx, profile)
	if err != nil {
		e.log.WarnContext(ctx, "segment configuration unavailable, degrading to regular cohort",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return DefaultSegmentID, false
	}

	assignment := Assignment{
		UserID:     userID,
		SegmentID:  segmentID,
		AssignedAt: e.now(),
		Profile:    profile,
	}
	if err := e.store.Put(ctx, assignment); err != nil {
		e.log.WarnContext(ctx, "assignment store write failed, degrading to regular cohort",
			slog.String("user_id", userID),
			slog.String("segment_id", segmentID),
			slog.Any("error", err))
		return DefaultSegmentID, false
	}

	return segmentID, true
}

// Classify matches the profile against the configured segments in priority
// order and returns the first match, falling back to the regular cohort.
// Unlike Assign it does not consult or touch stored assignments.
func (e *Engine) Classify(ctx context.Context, profile Profile) (string, error) {
	segments, err := e.provider.Segments(ctx)
	if err != nil {
		return DefaultSegmentID, err
	}

	now := e.now()
	for _, seg := range segments {
		if seg.ID == DefaultSegmentID {
			continue
		}
		if seg.Criteria.Matches(profile, now) {
			return seg.ID, nil
		}
	}
	return DefaultSegmentID, nil
}

// Lookup returns the definition of a segment by ID.
func (e *Engine) Lookup(ctx context.Context, segmentID string) (Segment, bool) {
	segments, err := e.provider.Segments(ctx)
	if err != nil {
		return Segment{}, false
	}
	for _, seg := range segments {
		if seg.ID == segmentID {
			return seg, true
		}
	}
	return Segment{}, false
}

// Reset removes the user's sticky assignment so the next Assign call
// re-classifies them. Administrative operation: failures are returned to the
// caller.
func (e *Engine) Reset(ctx context.Context, userID string) error {
	return e.store.Delete(ctx, userID)
}

// IsNotFound reports whether the error indicates a missing assignment.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssignmentNotFound)
}
