package feature

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/advisorly/experimentkit/pkg/analytics"
	"github.com/advisorly/experimentkit/pkg/bucket"
	"github.com/advisorly/experimentkit/pkg/segment"
	"github.com/advisorly/experimentkit/pkg/ttlcache"
)

// Source supplies the current flag configuration as a whole document.
type Source interface {
	Flags(ctx context.Context) (map[string]Flag, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (map[string]Flag, error)

func (f SourceFunc) Flags(ctx context.Context) (map[string]Flag, error) {
	return f(ctx)
}

// Directory resolves users to cohorts and cohorts to their definitions.
// *segment.Engine satisfies it.
type Directory interface {
	Assign(ctx context.Context, userID string, profile segment.Profile) string
	Lookup(ctx context.Context, segmentID string) (segment.Segment, bool)
}

const (
	defaultCacheCapacity = 16384
	defaultCacheTTL      = 5 * time.Minute
)

// Evaluator resolves feature decisions per user.
type Evaluator struct {
	source   Source
	segments Directory
	cache    *ttlcache.Cache[string, Result]
	sink     analytics.Sink
	log      *slog.Logger
	now      func() time.Time
}

// EvaluatorOption configures evaluator creation.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	cacheCapacity int
	cacheTTL      time.Duration
	sink          analytics.Sink
	log           *slog.Logger
	now           func() time.Time
}

// WithCacheCapacity bounds the number of cached (feature, user) results.
func WithCacheCapacity(n int) EvaluatorOption {
	return func(c *evaluatorConfig) {
		if n > 0 {
			c.cacheCapacity = n
		}
	}
}

// WithCacheTTL sets how long cached results are served before re-evaluation.
func WithCacheTTL(d time.Duration) EvaluatorOption {
	return func(c *evaluatorConfig) {
		if d > 0 {
			c.cacheTTL = d
		}
	}
}

// WithSink sets the analytics sink receiving evaluation events.
func WithSink(sink analytics.Sink) EvaluatorOption {
	return func(c *evaluatorConfig) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithLogger sets the evaluator's logger.
func WithLogger(log *slog.Logger) EvaluatorOption {
	return func(c *evaluatorConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithNowFunc overrides the evaluation clock. Intended for tests.
func WithNowFunc(now func() time.Time) EvaluatorOption {
	return func(c *evaluatorConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewEvaluator creates an evaluator. Source and segments are required and
// the constructor panics without them to fail fast on wiring mistakes.
func NewEvaluator(source Source, segments Directory, opts ...EvaluatorOption) *Evaluator {
	if source == nil {
		panic("feature: flag source cannot be nil")
	}
	if segments == nil {
		panic("feature: segment directory cannot be nil")
	}

	cfg := &evaluatorConfig{
		cacheCapacity: defaultCacheCapacity,
		cacheTTL:      defaultCacheTTL,
		sink:          analytics.Discard,
		log:           slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Evaluator{
		source:   source,
		segments: segments,
		cache:    ttlcache.New[string, Result](cfg.cacheCapacity, cfg.cacheTTL),
		sink:     cfg.sink,
		log:      cfg.log,
		now:      cfg.now,
	}
	e.cache.SetNowFunc(cfg.now)
	return e
}

// Evaluate resolves the feature decision for a user. Policy outcomes,
// including unknown features and dependency cycles, come back as disabled
// results with a reason; an error is returned only when the flag
// configuration itself cannot be loaded, so callers can route it through
// their retry and circuit breaker wrappers.
func (e *Evaluator) Evaluate(ctx context.Context, featureID, userID string, ectx EvalContext) (Result, error) {
	key := cacheKey(featureID, userID)
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	flags, err := e.source.Flags(ctx)
	if err != nil {
		return Result{}, errors.Join(ErrConfigUnavailable, err)
	}

	segmentID := e.segments.Assign(ctx, userID, ectx.Profile)
	result := e.evaluate(ctx, flags, featureID, userID, segmentID, ectx, make(map[string]bool))

	e.cache.Put(key, result)
	e.emit(ctx, featureID, userID, segmentID, result)

	return result, nil
}

// evaluate resolves one flag depth-first. The visiting set spans the current
// dependency chain; re-entering a flag on the same chain means the
// configuration contains a cycle and the evaluation fails closed.
func (e *Evaluator) evaluate(ctx context.Context, flags map[string]Flag, featureID, userID, segmentID string, ectx EvalContext, visiting map[string]bool) Result {
	now := e.now()
	if !ectx.Now.IsZero() {
		now = ectx.Now
	}

	if visiting[featureID] {
		e.log.ErrorContext(ctx, "feature dependency cycle detected, failing closed",
			slog.String("feature", featureID))
		return Disabled(ReasonCycleDetected, now)
	}

	flag, ok := flags[featureID]
	if !ok {
		e.log.WarnContext(ctx, "evaluation requested for unknown feature",
			slog.String("feature", featureID))
		return Disabled(ReasonFlagUnknown, now)
	}

	visiting[featureID] = true
	defer delete(visiting, featureID)

	for _, dep := range flag.Dependencies {
		depResult := e.evaluate(ctx, flags, dep, userID, segmentID, ectx, visiting)
		if depResult.Reason == ReasonCycleDetected {
			return depResult
		}
		if !depResult.Enabled {
			return Disabled(ReasonDependencyUnmet(dep), now)
		}
	}

	if !flag.Enabled {
		return Disabled(ReasonFlagDisabled, now)
	}
	if !bucket.InRollout(userID, flag.RolloutPercent) {
		return Disabled(ReasonNotInRollout, now)
	}

	seg, ok := e.segments.Lookup(ctx, segmentID)
	if !ok {
		return Disabled(ReasonNoOverride, now)
	}
	override, ok := seg.Overrides[featureID]
	if !ok {
		return Disabled(ReasonNoOverride, now)
	}
	if !override.Enabled {
		return Disabled(ReasonOverrideDisabled, now)
	}

	variant := override.Variant
	if variant == "" {
		variant = flag.PickVariant(userID)
	}
	result := Result{Enabled: true, Variant: variant, Reason: ReasonEnabled, Timestamp: now}

	return applyContextRules(flag, result, ectx, now)
}

// InvalidateFeature drops every cached result for the feature. Called when
// the flag's configuration changes so stale decisions do not outlive the
// change by a full TTL.
func (e *Evaluator) InvalidateFeature(featureID string) int {
	prefix := featureID + "\x00"
	return e.cache.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// InvalidateAll drops the whole evaluation cache.
func (e *Evaluator) InvalidateAll() {
	e.cache.Clear()
}

// CacheSize returns the number of cached results.
func (e *Evaluator) CacheSize() int {
	return e.cache.Len()
}

func (e *Evaluator) emit(ctx context.Context, featureID, userID, segmentID string, result Result) {
	event := analytics.Event{
		ID:        uuid.New().String(),
		Type:      analytics.TypeEvaluation,
		Feature:   featureID,
		UserID:    userID,
		Segment:   segmentID,
		Enabled:   result.Enabled,
		Variant:   result.Variant,
		Reason:    result.Reason,
		CreatedAt: result.Timestamp,
	}
	if err := e.sink.Append(ctx, event); err != nil {
		// Analytics is fire-and-forget: log and move on.
		e.log.WarnContext(ctx, "failed to append evaluation event",
			slog.String("feature", featureID),
			slog.Any("error", err))
	}
}

// The NUL separator cannot occur in feature IDs, so prefix invalidation by
// feature never matches another feature's keys.
func cacheKey(featureID, userID string) string {
	return featureID + "\x00" + userID
}
