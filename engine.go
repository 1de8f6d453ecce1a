package experimentkit

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/advisorly/experimentkit/pkg/analytics"
	"github.com/advisorly/experimentkit/pkg/breaker"
	"github.com/advisorly/experimentkit/pkg/configstore"
	"github.com/advisorly/experimentkit/pkg/fallback"
	"github.com/advisorly/experimentkit/pkg/feature"
	"github.com/advisorly/experimentkit/pkg/retry"
	"github.com/advisorly/experimentkit/pkg/rollout"
	"github.com/advisorly/experimentkit/pkg/segment"
)

// ReasonFallback marks decisions resolved from the safe default because
// evaluation itself was unavailable.
const ReasonFallback = "fallback default"

// Engine is the facade over evaluation, segmentation, rollout control, and
// resilience. Safe for concurrent use.
type Engine struct {
	store       configstore.Store
	segments    *segment.Engine
	evaluator   *feature.Evaluator
	breakers    *breaker.Registry
	fallbacks   *fallback.Resolver
	rollouts    *rollout.Controller
	sink        analytics.Sink
	log         *slog.Logger
	now         func() time.Time
	retryOpts   []retry.Option
}

// Option configures engine creation.
type Option func(*engineConfig)

type engineConfig struct {
	cfg       Config
	sink      analytics.Sink
	fallbacks *fallback.Resolver
	log       *slog.Logger
	now       func() time.Time
	evalOpts  []feature.EvaluatorOption
}

// WithConfig replaces the default engine tuning, typically loaded from the
// environment via pkg/config.
func WithConfig(cfg Config) Option {
	return func(c *engineConfig) {
		c.cfg = cfg
	}
}

// WithSink sets the analytics sink receiving all engine events.
func WithSink(sink analytics.Sink) Option {
	return func(c *engineConfig) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithFallbacks replaces the default fallback resolver.
func WithFallbacks(r *fallback.Resolver) Option {
	return func(c *engineConfig) {
		if r != nil {
			c.fallbacks = r
		}
	}
}

// WithLogger sets the logger shared by the engine and its components.
func WithLogger(log *slog.Logger) Option {
	return func(c *engineConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithNowFunc overrides the engine clock. Intended for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(c *engineConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEvaluatorOptions appends extra evaluator options, applied after the
// ones derived from Config.
func WithEvaluatorOptions(opts ...feature.EvaluatorOption) Option {
	return func(c *engineConfig) {
		c.evalOpts = append(c.evalOpts, opts...)
	}
}

// New wires an engine over the given configuration store and sticky
// assignment store.
func New(store configstore.Store, assignments segment.AssignmentStore, opts ...Option) *Engine {
	if store == nil {
		panic("experimentkit: configuration store cannot be nil")
	}
	if assignments == nil {
		panic("experimentkit: assignment store cannot be nil")
	}

	cfg := &engineConfig{
		cfg:       DefaultEngineConfig(),
		sink:      analytics.Discard,
		fallbacks: fallback.NewResolver(),
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	segments := segment.NewEngine(assignments, segmentProvider(store),
		segment.WithLogger(cfg.log),
		segment.WithNowFunc(cfg.now),
	)

	evalOpts := []feature.EvaluatorOption{
		feature.WithCacheCapacity(cfg.cfg.CacheCapacity),
		feature.WithCacheTTL(cfg.cfg.CacheTTL),
		feature.WithSink(cfg.sink),
		feature.WithLogger(cfg.log),
		feature.WithNowFunc(cfg.now),
	}
	evalOpts = append(evalOpts, cfg.evalOpts...)

	evaluator := feature.NewEvaluator(flagSource(store), segments, evalOpts...)

	e := &Engine{
		store:       store,
		segments:    segments,
		evaluator:   evaluator,
		breakers:    breaker.NewRegistry(cfg.cfg.Breaker, breaker.WithLogger(cfg.log)),
		fallbacks:   cfg.fallbacks,
		sink:        cfg.sink,
		log:         cfg.log,
		now:         cfg.now,
		retryOpts: []retry.Option{
			retry.WithMaxRetries(cfg.cfg.RetryMaxRetries),
			retry.WithBaseDelay(cfg.cfg.RetryBaseDelay),
			retry.WithMaxDelay(cfg.cfg.RetryMaxDelay),
			retry.WithMultiplier(cfg.cfg.RetryMultiplier),
			retry.WithLogger(cfg.log),
		},
	}
	e.rollouts = rollout.NewController(store, evaluator,
		rollout.WithSink(cfg.sink),
		rollout.WithLogger(cfg.log),
		rollout.WithNowFunc(cfg.now),
	)
	return e
}

// flagSource adapts the configuration store to the evaluator. A store that
// has never been seeded reads as an empty flag set rather than an error, so
// a freshly deployed engine evaluates everything as unknown instead of
// tripping its breaker.
func flagSource(store configstore.Store) feature.Source {
	return feature.SourceFunc(func(ctx context.Context) (map[string]feature.Flag, error) {
		doc, err := store.GetFlags(ctx)
		if err != nil {
			if configstore.IsNotFound(err) {
				return map[string]feature.Flag{}, nil
			}
			return nil, err
		}
		return doc.Flags, nil
	})
}

// segmentProvider adapts the configuration store to the segmentation engine,
// ordering segments by priority (lowest first, ties on ID).
func segmentProvider(store configstore.Store) segment.Provider {
	return segment.ProviderFunc(func(ctx context.Context) ([]segment.Segment, error) {
		doc, err := store.GetSegments(ctx)
		if err != nil {
			if configstore.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}

		segments := make([]segment.Segment, 0, len(doc.Segments))
		for _, seg := range doc.Segments {
			segments = append(segments, seg)
		}
		sort.Slice(segments, func(i, j int) bool {
			if segments[i].Priority != segments[j].Priority {
				return segments[i].Priority < segments[j].Priority
			}
			return segments[i].ID < segments[j].ID
		})
		return segments, nil
	})
}

// Evaluate resolves the feature decision for a user. It never fails: the
// evaluation runs behind the feature-flag circuit breaker with retries, and
// when both are exhausted the registered safe default is returned with
// ReasonFallback.
func (e *Engine) Evaluate(ctx context.Context, featureID, userID string, ectx feature.EvalContext) feature.Result {
	op := func(ctx context.Context) (feature.Result, error) {
		return retry.DoValue(ctx, func(ctx context.Context) (feature.Result, error) {
			return e.evaluator.Evaluate(ctx, featureID, userID, ectx)
		}, e.retryOpts...)
	}

	fb := func(err error) feature.Result {
		e.log.ErrorContext(ctx, "evaluation degraded to fallback default",
			slog.String("feature", featureID),
			slog.String("user_id", userID),
			slog.Any("error", err))

		decision, _ := e.fallbacks.Default(fallback.ServiceFeatureFlags).(fallback.FeatureDecision)
		return feature.Result{
			Enabled:   decision.Enabled,
			Variant:   decision.Variant,
			Reason:    ReasonFallback,
			Timestamp: e.now(),
		}
	}

	result, _ := breaker.Do(ctx, e.breakers, fallback.ServiceFeatureFlags, op, fb)
	return result
}

// AssignSegment returns the user's cohort, computing and persisting a sticky
// assignment on first call. It never fails; store outages degrade the user
// to the regular cohort for the call. A freshly persisted assignment is
// recorded as an analytics event; degraded calls are not, since nothing
// stuck.
func (e *Engine) AssignSegment(ctx context.Context, userID string, profile segment.Profile) string {
	segmentID, fresh := e.segments.Ensure(ctx, userID, profile)

	if fresh {
		e.emit(ctx, analytics.Event{
			ID:        uuid.New().String(),
			Type:      analytics.TypeSegmentAssigned,
			UserID:    userID,
			Segment:   segmentID,
			CreatedAt: e.now(),
		})
	}
	return segmentID
}

// ResetUserSegment removes the user's sticky assignment so the next
// AssignSegment call re-classifies them against current criteria.
func (e *Engine) ResetUserSegment(ctx context.Context, userID string) error {
	return e.segments.Reset(ctx, userID)
}

// ClassifySegment matches a profile against current criteria without
// touching stored assignments. Useful for previewing segment changes.
func (e *Engine) ClassifySegment(ctx context.Context, profile segment.Profile) (string, error) {
	return e.segments.Classify(ctx, profile)
}

// UpdateRollout sets a flag's rollout percentage in one step.
func (e *Engine) UpdateRollout(ctx context.Context, featureID string, percent float64) error {
	return e.rollouts.SetPercent(ctx, featureID, percent)
}

// GradualRollout walks a flag's rollout percentage up to target in steps,
// waiting interval between writes. It blocks until the target is reached or
// the context is cancelled; run it in its own goroutine for long ramps.
func (e *Engine) GradualRollout(ctx context.Context, featureID string, target, step float64, interval time.Duration) error {
	return e.rollouts.Run(ctx, featureID, target, step, interval)
}

// ResetBreaker forces the named service's circuit breaker back to closed.
func (e *Engine) ResetBreaker(service string) error {
	return e.breakers.Reset(service)
}

// Bootstrap seeds the configuration store from a YAML file. Existing
// configuration with a version at or above the file's is left untouched.
func (e *Engine) Bootstrap(ctx context.Context, path string) error {
	flags, segments, err := configstore.LoadFile(path)
	if err != nil {
		return err
	}

	if err := e.store.PutFlags(ctx, flags); err != nil && !configstore.IsVersionConflict(err) {
		return err
	}
	if err := e.store.PutSegments(ctx, segments); err != nil && !configstore.IsVersionConflict(err) {
		return err
	}

	e.evaluator.InvalidateAll()
	return nil
}

func (e *Engine) emit(ctx context.Context, event analytics.Event) {
	if err := e.sink.Append(ctx, event); err != nil {
		e.log.WarnContext(ctx, "failed to append analytics event",
			slog.String("type", event.Type),
			slog.Any("error", err))
	}
}
