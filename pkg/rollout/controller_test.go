package rollout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorly/experimentkit/pkg/analytics"
	"github.com/advisorly/experimentkit/pkg/configstore"
	"github.com/advisorly/experimentkit/pkg/feature"
	"github.com/advisorly/experimentkit/pkg/rollout"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateFeature(string) int {
	c.calls++
	return 1
}

func seededStore(t *testing.T, percent float64) *configstore.MemoryStore {
	t.Helper()

	store := configstore.NewMemoryStore()
	doc := configstore.FlagsDocument{
		Version: 1,
		Flags: map[string]feature.Flag{
			"checkout-v2": {ID: "checkout-v2", Enabled: true, RolloutPercent: percent},
		},
	}
	require.NoError(t, store.PutFlags(context.Background(), doc))
	return store
}

func currentPercent(t *testing.T, store *configstore.MemoryStore) float64 {
	t.Helper()

	doc, err := store.GetFlags(context.Background())
	require.NoError(t, err)
	return doc.Flags["checkout-v2"].RolloutPercent
}

func TestControllerSetPercent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("sets and invalidates", func(t *testing.T) {
		t.Parallel()

		store := seededStore(t, 10)
		inv := &countingInvalidator{}
		sink := analytics.NewMemorySink(10)
		ctrl := rollout.NewController(store, inv, rollout.WithSink(sink))

		require.NoError(t, ctrl.SetPercent(ctx, "checkout-v2", 40))

		assert.Equal(t, 40.0, currentPercent(t, store))
		assert.Equal(t, 1, inv.calls)

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, analytics.TypeRolloutChange, events[0].Type)
		assert.Equal(t, 10.0, events[0].Metadata["from_percent"])
		assert.Equal(t, 40.0, events[0].Metadata["to_percent"])
	})

	t.Run("rejects out-of-range percent", func(t *testing.T) {
		t.Parallel()

		ctrl := rollout.NewController(seededStore(t, 10), &countingInvalidator{})
		require.ErrorIs(t, ctrl.SetPercent(ctx, "checkout-v2", 101), rollout.ErrInvalidTarget)
		require.ErrorIs(t, ctrl.SetPercent(ctx, "checkout-v2", -1), rollout.ErrInvalidTarget)
	})

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()

		ctrl := rollout.NewController(seededStore(t, 10), &countingInvalidator{})
		require.ErrorIs(t, ctrl.SetPercent(ctx, "ghost", 50), feature.ErrFlagNotFound)
	})
}

func TestControllerRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("walks to the target in steps", func(t *testing.T) {
		t.Parallel()

		store := seededStore(t, 0)
		inv := &countingInvalidator{}
		sink := analytics.NewMemorySink(100)

		var waits int
		ctrl := rollout.NewController(store, inv,
			rollout.WithSink(sink),
			rollout.WithSleepFuncForTest(func(ctx context.Context, d time.Duration) error {
				waits++
				return nil
			}),
		)

		require.NoError(t, ctrl.Run(ctx, "checkout-v2", 100, 25, time.Hour))

		assert.Equal(t, 100.0, currentPercent(t, store))
		assert.Equal(t, 4, inv.calls, "one invalidation per step")
		assert.Equal(t, 3, waits, "no wait after the final step")

		steps := make([]float64, 0, 4)
		for _, e := range sink.Events() {
			steps = append(steps, e.Metadata["to_percent"].(float64))
		}
		assert.Equal(t, []float64{25, 50, 75, 100}, steps)
	})

	t.Run("final step is clamped to the target", func(t *testing.T) {
		t.Parallel()

		store := seededStore(t, 0)
		ctrl := rollout.NewController(store, &countingInvalidator{},
			rollout.WithSleepFuncForTest(func(ctx context.Context, d time.Duration) error { return nil }),
		)

		require.NoError(t, ctrl.Run(ctx, "checkout-v2", 80, 30, 0))
		assert.Equal(t, 80.0, currentPercent(t, store))
	})

	t.Run("target already reached is a no-op", func(t *testing.T) {
		t.Parallel()

		store := seededStore(t, 90)
		sink := analytics.NewMemorySink(10)
		ctrl := rollout.NewController(store, &countingInvalidator{}, rollout.WithSink(sink))

		require.NoError(t, ctrl.Run(ctx, "checkout-v2", 50, 10, time.Hour))
		assert.Equal(t, 90.0, currentPercent(t, store))
		assert.Zero(t, sink.Len())
	})

	t.Run("resumes from persisted percentage", func(t *testing.T) {
		t.Parallel()

		store := seededStore(t, 50)
		ctrl := rollout.NewController(store, &countingInvalidator{},
			rollout.WithSleepFuncForTest(func(ctx context.Context, d time.Duration) error { return nil }),
		)

		require.NoError(t, ctrl.Run(ctx, "checkout-v2", 100, 25, 0))
		assert.Equal(t, 100.0, currentPercent(t, store))
	})

	t.Run("cancelled context stops between steps", func(t *testing.T) {
		t.Parallel()

		store := seededStore(t, 0)
		ctrl := rollout.NewController(store, &countingInvalidator{},
			rollout.WithSleepFuncForTest(func(ctx context.Context, d time.Duration) error {
				return context.Canceled
			}),
		)

		err := ctrl.Run(ctx, "checkout-v2", 100, 10, time.Hour)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 10.0, currentPercent(t, store), "the step before cancellation is kept")
	})

	t.Run("validates arguments", func(t *testing.T) {
		t.Parallel()

		ctrl := rollout.NewController(seededStore(t, 0), &countingInvalidator{})
		require.ErrorIs(t, ctrl.Run(ctx, "checkout-v2", 150, 10, 0), rollout.ErrInvalidTarget)
		require.ErrorIs(t, ctrl.Run(ctx, "checkout-v2", 50, 0, 0), rollout.ErrInvalidStep)
	})
}
