package breaker

import (
	"sync"
	"time"
)

// State represents the current state of a circuit breaker.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests until the reset timeout elapses.
	StateOpen
	// StateHalfOpen allows a single probe request to test recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker tuning parameters.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker.
	FailureThreshold int `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`

	// ResetTimeout is how long an open breaker rejects calls before
	// admitting a half-open probe.
	ResetTimeout time.Duration `env:"BREAKER_RESET_TIMEOUT" envDefault:"60s"`

	// MonitoringPeriod is reserved for telemetry aggregation windows and
	// does not affect state transitions.
	MonitoringPeriod time.Duration `env:"BREAKER_MONITORING_PERIOD" envDefault:"5m"`
}

// DefaultConfig returns the standard breaker tuning.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		ResetTimeout:     60 * time.Second,
		MonitoringPeriod: 5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 60 * time.Second
	}
	if c.MonitoringPeriod <= 0 {
		c.MonitoringPeriod = 5 * time.Minute
	}
	return c
}

// Breaker is a circuit breaker for a single logical service.
// Safe for concurrent use: all compound state transitions happen under one
// mutex.
type Breaker struct {
	service string
	cfg     Config

	mu            sync.Mutex
	state         State
	failures      int
	probing       bool
	lastFailureAt time.Time
	lastSuccessAt time.Time

	// now is swappable for deterministic timeout tests.
	now func() time.Time
}

// NewBreaker creates a closed breaker for the service with the given config.
// Zero config fields fall back to defaults.
func NewBreaker(service string, cfg Config) *Breaker {
	return &Breaker{
		service: service,
		cfg:     cfg.withDefaults(),
		state:   StateClosed,
		now:     time.Now,
	}
}

// Allow reports whether a call may proceed. An open breaker whose reset
// timeout has elapsed transitions to half-open and admits exactly one probe;
// concurrent calls during the probe are rejected.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true

	case StateOpen:
		if b.now().Sub(b.lastFailureAt) >= b.cfg.ResetTimeout {
			b.state = StateHalfOpen
			b.probing = true
			return true
		}
		return false

	case StateHalfOpen:
		// Only one probe at a time.
		if b.probing {
			return false
		}
		b.probing = true
		return true

	default:
		return false
	}
}

// RecordSuccess records a successful call. A half-open probe success fully
// closes the breaker and clears the failure counter. A success in the closed
// state only updates the success timestamp: the counter tracks consecutive
// failures since the last recovery, not a sliding window, and is not decayed.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSuccessAt = b.now()

	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.failures = 0
		b.probing = false
	}
}

// RecordFailure records a failed call, opening the breaker once the failure
// threshold is reached. A half-open probe failure reopens immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureAt = b.now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.state = StateOpen
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.probing = false
	}
}

// State returns the current state without triggering transitions.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to the closed state with a clear counter.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.probing = false
	b.lastFailureAt = time.Time{}
}

// Info is a point-in-time snapshot of a breaker for health reporting.
type Info struct {
	Service       string    `json:"service"`
	State         string    `json:"state"`
	Failures      int       `json:"failures"`
	LastFailureAt time.Time `json:"last_failure_at,omitzero"`
	LastSuccessAt time.Time `json:"last_success_at,omitzero"`
}

// Snapshot returns the breaker's current statistics.
func (b *Breaker) Snapshot() Info {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Info{
		Service:       b.service,
		State:         b.state.String(),
		Failures:      b.failures,
		LastFailureAt: b.lastFailureAt,
		LastSuccessAt: b.lastSuccessAt,
	}
}

// SetNowFunc overrides the clock used for reset timeout checks. Intended for
// tests.
func (b *Breaker) SetNowFunc(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now != nil {
		b.now = now
	}
}
