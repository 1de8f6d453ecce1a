package feature

import "time"

// Contextual rule thresholds.
const (
	loadShedSystemLoad   = 0.8
	loadShedErrorRate    = 0.1
	shortSessionDuration = 30 * time.Second
)

// contextRule may downgrade an enabled result. Rules never upgrade: a
// disabled result is returned to the caller before rules run.
type contextRule struct {
	name  string
	apply func(flag Flag, res Result, ectx EvalContext, now time.Time) (Result, bool)
}

// contextRules is the fixed-priority rule chain. The first rule that matches
// wins and stops further rule evaluation for that call.
var contextRules = []contextRule{
	{
		name: "load shed",
		apply: func(flag Flag, res Result, ectx EvalContext, now time.Time) (Result, bool) {
			if !flag.Heavy {
				return res, false
			}
			if ectx.SystemLoad > loadShedSystemLoad || ectx.ErrorRate > loadShedErrorRate {
				return Disabled(ReasonLoadShed, now), true
			}
			return res, false
		},
	},
	{
		name: "short session",
		apply: func(flag Flag, res Result, ectx EvalContext, now time.Time) (Result, bool) {
			if flag.BasicVariant == "" || ectx.SessionDuration <= 0 {
				return res, false
			}
			if ectx.SessionDuration < shortSessionDuration && res.Variant != flag.BasicVariant {
				res.Variant = flag.BasicVariant
				res.Reason = ReasonShortSession
				return res, true
			}
			return res, false
		},
	},
	{
		name: "active hours",
		apply: func(flag Flag, res Result, ectx EvalContext, now time.Time) (Result, bool) {
			if flag.ActiveHours == nil {
				return res, false
			}
			if !flag.ActiveHours.Contains(now.Hour()) {
				return Disabled(ReasonOutsideHours, now), true
			}
			return res, false
		},
	},
}

// applyContextRules runs the rule chain over an enabled result.
func applyContextRules(flag Flag, res Result, ectx EvalContext, now time.Time) Result {
	for _, rule := range contextRules {
		if downgraded, matched := rule.apply(flag, res, ectx, now); matched {
			return downgraded
		}
	}
	return res
}
