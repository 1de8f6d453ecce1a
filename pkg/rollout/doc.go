// Package rollout changes feature rollout percentages, either directly or
// gradually over time.
//
// A gradual rollout walks a flag's percentage from its current value to a
// target in fixed steps, persisting each step through the configuration
// store and invalidating cached evaluations so new traffic sees the step
// immediately. Runs are idempotent: starting a rollout whose target is
// already reached is a no-op, and re-running after a crash resumes from the
// persisted percentage.
//
// Example:
//
//	ctrl := rollout.NewController(store, evaluator)
//	if err := ctrl.Run(ctx, "checkout-v2", 100, 10, time.Hour); err != nil {
//		log.Error("rollout aborted", "error", err)
//	}
package rollout
