package feature

import (
	"time"

	"github.com/advisorly/experimentkit/pkg/segment"
)

// Evaluation reasons. Stable strings: they are recorded in analytics events
// and compared in dashboards.
const (
	ReasonEnabled          = "segment override"
	ReasonFlagUnknown      = "unknown feature"
	ReasonFlagDisabled     = "flag disabled"
	ReasonNotInRollout     = "not in rollout"
	ReasonNoOverride       = "no segment override"
	ReasonOverrideDisabled = "segment override disabled"
	ReasonCycleDetected    = "dependency cycle detected"
	ReasonLoadShed         = "load shed"
	ReasonShortSession     = "short session"
	ReasonOutsideHours     = "outside active hours"
)

// ReasonDependencyUnmet formats the short-circuit reason for a disabled
// dependency.
func ReasonDependencyUnmet(dep string) string {
	return "dependency unmet: " + dep
}

// Result is the outcome of evaluating one feature for one user.
type Result struct {
	Enabled   bool      `json:"enabled"`
	Variant   string    `json:"variant,omitempty"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Disabled builds a disabled result with the given reason.
func Disabled(reason string, at time.Time) Result {
	return Result{Enabled: false, Reason: reason, Timestamp: at}
}

// EvalContext carries the per-call situational inputs for contextual rules
// and, for a user's first evaluation, the profile used for cohort
// assignment.
type EvalContext struct {
	// Profile is the user's profile snapshot, consulted only when the user
	// has no sticky cohort assignment yet.
	Profile segment.Profile

	// SystemLoad is the current load factor in [0,1]; heavy features shed
	// above 0.8.
	SystemLoad float64

	// ErrorRate is the current error fraction in [0,1]; heavy features
	// shed above 0.1.
	ErrorRate float64

	// SessionDuration is how long the user's session has lasted so far.
	// Sessions under 30 seconds receive simplified variants. Zero means
	// unknown and disables the rule.
	SessionDuration time.Duration

	// Now overrides the evaluation clock for hour-window rules. Zero means
	// the evaluator's clock.
	Now time.Time
}
