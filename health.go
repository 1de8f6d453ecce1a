package experimentkit

import (
	"context"

	"github.com/advisorly/experimentkit/pkg/breaker"
	"github.com/advisorly/experimentkit/pkg/configstore"
)

// Health is a point-in-time snapshot of the engine's operational state,
// shaped for health endpoints and dashboards.
type Health struct {
	CircuitBreakers BreakerHealth `json:"circuit_breakers"`
	Cache           CacheHealth   `json:"cache"`
	Features        FeatureHealth `json:"features"`
}

// BreakerHealth summarizes the circuit breaker registry.
type BreakerHealth struct {
	Total  int            `json:"total"`
	Open   int            `json:"open"`
	Detail []breaker.Info `json:"detail,omitempty"`
}

// CacheHealth summarizes the evaluation cache.
type CacheHealth struct {
	Size int `json:"size"`
}

// FeatureHealth summarizes the flag configuration. Available is false when
// the configuration store could not be read; the counters are zero then.
type FeatureHealth struct {
	Available bool `json:"available"`
	Total     int  `json:"total"`
	Enabled   int  `json:"enabled"`
}

// HealthStatus collects the engine's health snapshot. It never fails; a
// configuration store outage is reported through Features.Available.
func (e *Engine) HealthStatus(ctx context.Context) Health {
	h := Health{
		Cache: CacheHealth{Size: e.evaluator.CacheSize()},
	}

	h.CircuitBreakers.Detail = e.breakers.Snapshot()
	h.CircuitBreakers.Total = len(h.CircuitBreakers.Detail)
	for _, info := range h.CircuitBreakers.Detail {
		if info.State != breaker.StateClosed.String() {
			h.CircuitBreakers.Open++
		}
	}

	doc, err := e.store.GetFlags(ctx)
	if err == nil || configstore.IsNotFound(err) {
		h.Features.Available = true
		h.Features.Total = len(doc.Flags)
		for _, flag := range doc.Flags {
			if flag.Enabled {
				h.Features.Enabled++
			}
		}
	}

	return h
}
