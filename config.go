package experimentkit

import (
	"time"

	"github.com/advisorly/experimentkit/pkg/breaker"
)

// Config holds the engine's resilience and caching tuning. All fields are
// env-loadable via pkg/config.
type Config struct {
	Breaker breaker.Config

	// CacheCapacity bounds the number of cached (feature, user) decisions.
	CacheCapacity int `env:"EXPERIMENTS_CACHE_CAPACITY" envDefault:"16384"`

	// CacheTTL is how long cached decisions are served before re-evaluation.
	CacheTTL time.Duration `env:"EXPERIMENTS_CACHE_TTL" envDefault:"5m"`

	// RetryMaxRetries is how many times a failed configuration load is
	// retried after the initial attempt.
	RetryMaxRetries int `env:"EXPERIMENTS_RETRY_MAX_RETRIES" envDefault:"3"`

	// RetryBaseDelay is the backoff delay before the first retry.
	RetryBaseDelay time.Duration `env:"EXPERIMENTS_RETRY_BASE_DELAY" envDefault:"1s"`

	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration `env:"EXPERIMENTS_RETRY_MAX_DELAY" envDefault:"10s"`

	// RetryMultiplier is the exponential backoff growth factor.
	RetryMultiplier float64 `env:"EXPERIMENTS_RETRY_MULTIPLIER" envDefault:"2.0"`
}

// DefaultEngineConfig returns the standard engine tuning.
func DefaultEngineConfig() Config {
	return Config{
		Breaker:         breaker.DefaultConfig(),
		CacheCapacity:   16384,
		CacheTTL:        5 * time.Minute,
		RetryMaxRetries: 3,
		RetryBaseDelay:  time.Second,
		RetryMaxDelay:   10 * time.Second,
		RetryMultiplier: 2,
	}
}
