package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

type options struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	multiplier float64
	log        *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures retry behavior.
type Option func(*options)

// WithMaxRetries sets how many times a failed operation is retried after the
// initial attempt. Negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.maxRetries = n
	}
}

// WithBaseDelay sets the delay before the first retry.
func WithBaseDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.baseDelay = d
		}
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.maxDelay = d
		}
	}
}

// WithMultiplier sets the exponential growth factor. Values below 1 are
// rejected to keep the backoff monotonic.
func WithMultiplier(m float64) Option {
	return func(o *options) {
		if m >= 1 {
			o.multiplier = m
		}
	}
}

// WithLogger sets the logger used for per-attempt and terminal failure logs.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// withSleepFunc overrides the delay mechanism for deterministic tests.
func withSleepFunc(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

func defaultOptions() *options {
	return &options{
		maxRetries: 3,
		baseDelay:  time.Second,
		maxDelay:   10 * time.Second,
		multiplier: 2,
		log:        slog.Default(),
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// delayBefore computes the backoff delay preceding retry attempt n (n >= 1):
// min(baseDelay * multiplier^(n-1), maxDelay).
func (o *options) delayBefore(attempt int) time.Duration {
	d := float64(o.baseDelay) * math.Pow(o.multiplier, float64(attempt-1))
	if d > float64(o.maxDelay) {
		return o.maxDelay
	}
	return time.Duration(d)
}

// DoValue executes op, retrying failures with exponential backoff, and
// returns the operation's value. After the final failed attempt the last
// error is returned wrapped in ErrRetriesExhausted. Context cancellation
// during a backoff sleep aborts immediately with the context error.
func DoValue[T any](ctx context.Context, op func(context.Context) (T, error), opts ...Option) (T, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			delay := o.delayBefore(attempt)
			o.log.DebugContext(ctx, "backing off before retry",
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay))
			if err := o.sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		o.log.WarnContext(ctx, "attempt failed",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", o.maxRetries+1),
			slog.Any("error", err))
	}

	o.log.ErrorContext(ctx, "all attempts failed",
		slog.Int("attempts", o.maxRetries+1),
		slog.Any("error", lastErr))

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, o.maxRetries+1, lastErr)
}

// Do executes an operation without a result value. See DoValue.
func Do(ctx context.Context, op func(context.Context) error, opts ...Option) error {
	_, err := DoValue(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}
