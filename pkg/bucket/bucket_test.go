package bucket_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorly/experimentkit/pkg/bucket"
)

func TestHash_Deterministic(t *testing.T) {
	t.Parallel()

	ids := []string{"", "usr_1", "usr_2", "a-very-long-user-identifier-with-suffix-0000001"}
	for _, id := range ids {
		first := bucket.Hash(id)
		for range 10 {
			assert.Equal(t, first, bucket.Hash(id), "hash must be stable for %q", id)
		}
	}
}

func TestHash_Range(t *testing.T) {
	t.Parallel()

	for i := range 1000 {
		v := bucket.Hash(fmt.Sprintf("user-%d", i))
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestHash_Distribution(t *testing.T) {
	t.Parallel()

	// Sequential IDs must still spread uniformly; count how many land in
	// each decile and verify no decile is wildly over- or under-populated.
	const n = 10000
	var deciles [10]int
	for i := range n {
		v := bucket.Hash(fmt.Sprintf("user-%d", i))
		deciles[int(v*10)]++
	}

	for d, count := range deciles {
		assert.InDelta(t, n/10, count, n/10*0.2, "decile %d is skewed", d)
	}
}

func TestInRollout_Boundaries(t *testing.T) {
	t.Parallel()

	assert.False(t, bucket.InRollout("usr_1", 0))
	assert.False(t, bucket.InRollout("usr_1", -5))
	assert.True(t, bucket.InRollout("usr_1", 100))
	assert.True(t, bucket.InRollout("usr_1", 150))
}

func TestInRollout_Monotonic(t *testing.T) {
	t.Parallel()

	// Everyone inside a smaller rollout must stay inside every larger one.
	const n = 5000
	for _, step := range []struct{ low, high float64 }{
		{5, 10}, {10, 25}, {25, 50}, {50, 99},
	} {
		for i := range n {
			id := fmt.Sprintf("user-%d", i)
			if bucket.InRollout(id, step.low) {
				require.True(t, bucket.InRollout(id, step.high),
					"user %q in %v%% rollout but not in %v%%", id, step.low, step.high)
			}
		}
	}
}

func TestInRollout_Proportion(t *testing.T) {
	t.Parallel()

	// 25% rollout over 10k synthetic users should include ~2500 (+/-5%).
	const n = 10000
	count := 0
	for i := range n {
		if bucket.InRollout(fmt.Sprintf("user-%d", i), 25) {
			count++
		}
	}
	assert.InDelta(t, 2500, count, 500)
}
