package rollout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/advisorly/experimentkit/pkg/analytics"
	"github.com/advisorly/experimentkit/pkg/configstore"
	"github.com/advisorly/experimentkit/pkg/feature"
)

// FlagStore is the slice of the configuration store the controller needs.
// configstore.Store satisfies it.
type FlagStore interface {
	GetFlags(ctx context.Context) (configstore.FlagsDocument, error)
	PutFlags(ctx context.Context, doc configstore.FlagsDocument) error
}

// Invalidator drops cached evaluations for a feature after its configuration
// changes. *feature.Evaluator satisfies it.
type Invalidator interface {
	InvalidateFeature(featureID string) int
}

// Controller adjusts rollout percentages through the configuration store.
type Controller struct {
	store FlagStore
	cache Invalidator
	sink  analytics.Sink
	log   *slog.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures controller creation.
type Option func(*Controller)

// WithSink sets the analytics sink receiving rollout change events.
func WithSink(sink analytics.Sink) Option {
	return func(c *Controller) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithLogger sets the controller's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithNowFunc overrides the controller clock. Intended for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func withSleepFunc(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) {
		c.sleep = sleep
	}
}

// NewController creates a controller. Store and cache are required and the
// constructor panics without them to fail fast on wiring mistakes.
func NewController(store FlagStore, cache Invalidator, opts ...Option) *Controller {
	if store == nil {
		panic("rollout: flag store cannot be nil")
	}
	if cache == nil {
		panic("rollout: cache invalidator cannot be nil")
	}

	c := &Controller{
		store: store,
		cache: cache,
		sink:  analytics.Discard,
		log:   slog.Default(),
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPercent sets the flag's rollout percentage in one write, invalidates
// cached evaluations, and records the change.
func (c *Controller) SetPercent(ctx context.Context, featureID string, percent float64) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidTarget
	}
	_, err := c.step(ctx, featureID, percent)
	return err
}

// Run walks the flag's rollout percentage up to target in increments of
// step, waiting interval between writes. A target at or below the current
// percentage is a no-op, so re-running a finished or interrupted rollout is
// safe. The final step is clamped to land exactly on target.
func (c *Controller) Run(ctx context.Context, featureID string, target, step float64, interval time.Duration) error {
	if target < 0 || target > 100 {
		return ErrInvalidTarget
	}
	if step <= 0 {
		return ErrInvalidStep
	}

	for {
		current, err := c.currentPercent(ctx, featureID)
		if err != nil {
			return err
		}
		if current >= target {
			return nil
		}

		next := min(current+step, target)
		if _, err := c.step(ctx, featureID, next); err != nil {
			return err
		}
		c.log.InfoContext(ctx, "rollout advanced",
			slog.String("feature", featureID),
			slog.Float64("percent", next),
			slog.Float64("target", target))

		if next >= target {
			return nil
		}
		if err := c.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

func (c *Controller) currentPercent(ctx context.Context, featureID string) (float64, error) {
	doc, err := c.store.GetFlags(ctx)
	if err != nil {
		return 0, err
	}
	flag, ok := doc.Flags[featureID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", feature.ErrFlagNotFound, featureID)
	}
	return flag.RolloutPercent, nil
}

// step performs one read-modify-write of the flag document. On a version
// conflict with a concurrent writer the step is retried once against the
// fresh document.
func (c *Controller) step(ctx context.Context, featureID string, percent float64) (float64, error) {
	for attempt := 0; ; attempt++ {
		doc, err := c.store.GetFlags(ctx)
		if err != nil {
			return 0, err
		}
		flag, ok := doc.Flags[featureID]
		if !ok {
			return 0, fmt.Errorf("%w: %s", feature.ErrFlagNotFound, featureID)
		}

		previous := flag.RolloutPercent
		flag.RolloutPercent = percent
		flag.UpdatedAt = c.now()
		doc.Flags[featureID] = flag
		doc.Version++
		doc.UpdatedAt = flag.UpdatedAt

		if err := c.store.PutFlags(ctx, doc); err != nil {
			if errors.Is(err, configstore.ErrVersionConflict) && attempt == 0 {
				continue
			}
			return 0, err
		}

		c.cache.InvalidateFeature(featureID)
		c.emit(ctx, featureID, previous, percent)
		return previous, nil
	}
}

func (c *Controller) emit(ctx context.Context, featureID string, from, to float64) {
	event := analytics.Event{
		ID:      uuid.New().String(),
		Type:    analytics.TypeRolloutChange,
		Feature: featureID,
		Reason:  fmt.Sprintf("rollout %.1f%% -> %.1f%%", from, to),
		Metadata: map[string]any{
			"from_percent": from,
			"to_percent":   to,
		},
		CreatedAt: c.now(),
	}
	if err := c.sink.Append(ctx, event); err != nil {
		c.log.WarnContext(ctx, "failed to append rollout event",
			slog.String("feature", featureID),
			slog.Any("error", err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
