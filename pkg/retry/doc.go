// Package retry executes operations with bounded exponential backoff.
//
// An operation is attempted once and, on failure, retried up to MaxRetries
// times. The delay before retry n is min(BaseDelay * Multiplier^(n-1),
// MaxDelay), so the default policy (3 retries, 1s base, x2) produces attempts
// at roughly 0s, 1s, 3s, and 7s. Sleeps respect context cancellation.
//
// Retrying is orthogonal to circuit breaking: wrap the whole Do call in a
// breaker so a full retry sequence counts as one logical failure, not one
// failure per attempt.
//
// # Usage
//
//	flags, err := retry.DoValue(ctx, func(ctx context.Context) (Flags, error) {
//		return store.GetFlags(ctx)
//	}, retry.WithMaxRetries(3))
package retry
