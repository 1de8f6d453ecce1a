// Package experimentkit is a server-side experimentation and progressive
// delivery engine: feature flags with dependencies and variants, sticky user
// segmentation, percentage rollouts, and resilience around every evaluation.
//
// The root package wires the building blocks from pkg/ into one Engine.
// Evaluate never fails: evaluation runs behind a circuit breaker with
// exponential-backoff retries, and when the configuration store stays
// unreachable the caller receives the registered safe default instead of an
// error. Administrative operations (flag CRUD, rollout changes, emergency
// disable) report their errors normally.
//
// Example:
//
//	store := configstore.NewMemoryStore()
//	assignments := segment.NewMemoryAssignmentStore()
//
//	engine := experimentkit.New(store, assignments)
//	if err := engine.Bootstrap(ctx, "experiments.yaml"); err != nil {
//		log.Fatal(err)
//	}
//
//	res := engine.Evaluate(ctx, "checkout-v2", userID, feature.EvalContext{
//		Profile: profile,
//	})
//	if res.Enabled {
//		serveVariant(res.Variant)
//	}
package experimentkit
