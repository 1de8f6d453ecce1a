package feature_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorly/experimentkit/pkg/feature"
)

func TestFlagValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid flag", func(t *testing.T) {
		t.Parallel()

		flag := feature.Flag{
			ID:             "checkout-v2",
			Enabled:        true,
			RolloutPercent: 50,
			Variants:       map[string]int{"control": 1, "treatment": 1},
		}
		require.NoError(t, flag.Validate())
	})

	t.Run("empty id", func(t *testing.T) {
		t.Parallel()

		err := feature.Flag{}.Validate()
		require.ErrorIs(t, err, feature.ErrInvalidFlag)
	})

	t.Run("rollout percent out of range", func(t *testing.T) {
		t.Parallel()

		err := feature.Flag{ID: "f", RolloutPercent: 101}.Validate()
		require.ErrorIs(t, err, feature.ErrInvalidFlag)

		err = feature.Flag{ID: "f", RolloutPercent: -1}.Validate()
		require.ErrorIs(t, err, feature.ErrInvalidFlag)
	})

	t.Run("non-positive variant weight", func(t *testing.T) {
		t.Parallel()

		err := feature.Flag{ID: "f", Variants: map[string]int{"a": 0}}.Validate()
		require.ErrorIs(t, err, feature.ErrInvalidFlag)
	})

	t.Run("basic variant must be declared", func(t *testing.T) {
		t.Parallel()

		err := feature.Flag{
			ID:           "f",
			Variants:     map[string]int{"full": 1},
			BasicVariant: "basic",
		}.Validate()
		require.ErrorIs(t, err, feature.ErrInvalidFlag)
	})

	t.Run("active hours out of range", func(t *testing.T) {
		t.Parallel()

		err := feature.Flag{
			ID:          "f",
			ActiveHours: &feature.HourWindow{From: -1, To: 8},
		}.Validate()
		require.ErrorIs(t, err, feature.ErrInvalidFlag)
	})
}

func TestValidateGraph(t *testing.T) {
	t.Parallel()

	t.Run("acyclic graph passes", func(t *testing.T) {
		t.Parallel()

		flags := map[string]feature.Flag{
			"a": {ID: "a", Dependencies: []string{"b", "c"}},
			"b": {ID: "b", Dependencies: []string{"c"}},
			"c": {ID: "c"},
		}
		require.NoError(t, feature.ValidateGraph(flags))
	})

	t.Run("direct cycle", func(t *testing.T) {
		t.Parallel()

		flags := map[string]feature.Flag{
			"a": {ID: "a", Dependencies: []string{"b"}},
			"b": {ID: "b", Dependencies: []string{"a"}},
		}
		require.ErrorIs(t, feature.ValidateGraph(flags), feature.ErrCycleDetected)
	})

	t.Run("self cycle", func(t *testing.T) {
		t.Parallel()

		flags := map[string]feature.Flag{
			"a": {ID: "a", Dependencies: []string{"a"}},
		}
		require.ErrorIs(t, feature.ValidateGraph(flags), feature.ErrCycleDetected)
	})

	t.Run("unknown dependency", func(t *testing.T) {
		t.Parallel()

		flags := map[string]feature.Flag{
			"a": {ID: "a", Dependencies: []string{"ghost"}},
		}
		require.ErrorIs(t, feature.ValidateGraph(flags), feature.ErrInvalidFlag)
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		t.Parallel()

		flags := map[string]feature.Flag{
			"top":   {ID: "top", Dependencies: []string{"left", "right"}},
			"left":  {ID: "left", Dependencies: []string{"base"}},
			"right": {ID: "right", Dependencies: []string{"base"}},
			"base":  {ID: "base"},
		}
		require.NoError(t, feature.ValidateGraph(flags))
	})
}

func TestPickVariant(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		flag := feature.Flag{ID: "search", Variants: map[string]int{"control": 1, "treatment": 1}}
		first := flag.PickVariant("user-42")
		for range 50 {
			assert.Equal(t, first, flag.PickVariant("user-42"))
		}
	})

	t.Run("no variants yields default", func(t *testing.T) {
		t.Parallel()

		flag := feature.Flag{ID: "plain"}
		assert.Equal(t, "default", flag.PickVariant("user-1"))
	})

	t.Run("weights steer distribution", func(t *testing.T) {
		t.Parallel()

		flag := feature.Flag{ID: "ranking", Variants: map[string]int{"heavy": 9, "light": 1}}
		counts := map[string]int{}
		for i := range 10_000 {
			counts[flag.PickVariant("user-"+strconv.Itoa(i))]++
		}
		assert.Greater(t, counts["heavy"], 8_000)
		assert.Less(t, counts["light"], 2_000)
		assert.Positive(t, counts["light"])
	})

	t.Run("independent across flags", func(t *testing.T) {
		t.Parallel()

		a := feature.Flag{ID: "flag-a", Variants: map[string]int{"x": 1, "y": 1}}
		b := feature.Flag{ID: "flag-b", Variants: map[string]int{"x": 1, "y": 1}}

		diverged := false
		for i := range 100 {
			id := "user-" + strconv.Itoa(i)
			if a.PickVariant(id) != b.PickVariant(id) {
				diverged = true
				break
			}
		}
		assert.True(t, diverged, "variant choice should not be correlated across flags")
	})
}

func TestHourWindowContains(t *testing.T) {
	t.Parallel()

	t.Run("plain window", func(t *testing.T) {
		t.Parallel()

		w := feature.HourWindow{From: 9, To: 17}
		assert.True(t, w.Contains(9))
		assert.True(t, w.Contains(16))
		assert.False(t, w.Contains(17))
		assert.False(t, w.Contains(3))
	})

	t.Run("wrapping window", func(t *testing.T) {
		t.Parallel()

		w := feature.HourWindow{From: 22, To: 6}
		assert.True(t, w.Contains(23))
		assert.True(t, w.Contains(0))
		assert.True(t, w.Contains(5))
		assert.False(t, w.Contains(6))
		assert.False(t, w.Contains(12))
	})

	t.Run("empty window contains nothing", func(t *testing.T) {
		t.Parallel()

		w := feature.HourWindow{From: 8, To: 8}
		for h := range 24 {
			assert.False(t, w.Contains(h))
		}
	})
}
