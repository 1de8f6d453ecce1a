package breaker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry manages one breaker per logical service name, creating them
// lazily on first use.
type Registry struct {
	cfg Config
	log *slog.Logger

	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// RegistryOption configures registry creation.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for breaker state changes and rejected
// calls.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates a breaker registry. Every lazily created breaker uses
// the provided config.
func NewRegistry(cfg Config, opts ...RegistryOption) *Registry {
	r := &Registry{
		cfg:      cfg.withDefaults(),
		log:      slog.Default(),
		breakers: make(map[string]*Breaker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the breaker for the service, creating it if needed.
func (r *Registry) Get(service string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[service]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[service]; ok {
		return b
	}
	b = NewBreaker(service, r.cfg)
	r.breakers[service] = b
	return b
}

// Reset forces the named breaker back to closed. Administrative operation:
// resetting a service that never tripped a breaker is an error so typos in
// service names surface instead of silently succeeding.
func (r *Registry) Reset(service string) error {
	r.mu.RLock()
	b, ok := r.breakers[service]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	b.Reset()
	r.log.Info("circuit breaker reset", slog.String("service", service))
	return nil
}

// Snapshot returns the current state of every breaker in the registry.
func (r *Registry) Snapshot() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.breakers))
	for _, b := range r.breakers {
		infos = append(infos, b.Snapshot())
	}
	return infos
}

// Do executes op through the named breaker. When the breaker rejects the
// call or op fails, the fallback (if any) resolves the result and the error
// is swallowed; without a fallback the error is returned. Every failure is
// logged with the service name, failure count, and resulting state.
func Do[T any](ctx context.Context, r *Registry, service string, op func(context.Context) (T, error), fallback func(error) T) (T, error) {
	b := r.Get(service)

	if !b.Allow() {
		r.log.ErrorContext(ctx, "circuit breaker rejected call",
			slog.String("service", service),
			slog.String("state", b.State().String()))
		if fallback != nil {
			return fallback(ErrCircuitOpen), nil
		}
		var zero T
		return zero, fmt.Errorf("%w: service %q", ErrCircuitOpen, service)
	}

	result, err := op(ctx)
	if err == nil {
		b.RecordSuccess()
		return result, nil
	}

	b.RecordFailure()
	info := b.Snapshot()
	r.log.ErrorContext(ctx, "guarded operation failed",
		slog.String("service", service),
		slog.Int("failures", info.Failures),
		slog.String("state", info.State),
		slog.Any("error", err))

	if fallback != nil {
		return fallback(err), nil
	}
	var zero T
	return zero, err
}
