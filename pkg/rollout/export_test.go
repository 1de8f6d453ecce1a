package rollout

import (
	"context"
	"time"
)

// WithSleepFuncForTest overrides the inter-step wait so rollout tests run
// without real delays.
func WithSleepFuncForTest(sleep func(ctx context.Context, d time.Duration) error) Option {
	return withSleepFunc(sleep)
}
