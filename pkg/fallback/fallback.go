package fallback

import "sync"

// Well-known service names with registered default payloads.
const (
	ServiceFeatureFlags    = "featureFlags"
	ServiceRecommendations = "recommendations"
	ServiceSegmentation    = "segmentation"
)

// FeatureDecision is the safe default for feature flag evaluation: the
// feature reads as disabled with no variant.
type FeatureDecision struct {
	Enabled bool   `json:"enabled"`
	Variant string `json:"variant"`
}

// Advice is a single generic recommendation, safe to show any user.
type Advice struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Unavailable marks a service with no registered fallback. It is a value,
// not an error: resolution must never fail.
type Unavailable struct {
	Fallback bool   `json:"fallback"`
	Error    string `json:"error"`
}

// Resolver maps logical service names to safe static payloads.
// Safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	defaults map[string]any
}

// NewResolver creates a resolver seeded with the standard safe payloads for
// feature flags, recommendations, and segmentation.
func NewResolver() *Resolver {
	return &Resolver{
		defaults: map[string]any{
			ServiceFeatureFlags: FeatureDecision{Enabled: false, Variant: "none"},
			ServiceRecommendations: []Advice{
				{
					Title: "Review your monthly cash flow",
					Body:  "Keeping a simple record of money in and out is the single most reliable way to spot problems early.",
				},
			},
			ServiceSegmentation: "regular",
		},
	}
}

// Register adds or replaces the fallback payload for a service.
func (r *Resolver) Register(service string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[service] = payload
}

// Default returns the safe payload for a service. It never panics and never
// returns nil: unknown service names resolve to an Unavailable marker.
func (r *Resolver) Default(service string) any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if payload, ok := r.defaults[service]; ok {
		return payload
	}
	return Unavailable{Fallback: true, Error: "no fallback available"}
}
