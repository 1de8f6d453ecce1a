// Package breaker guards fragile downstream operations with per-service
// circuit breakers.
//
// Each breaker is a three-state machine. Closed passes calls through and
// counts failures; once the count reaches the failure threshold the breaker
// opens and rejects calls immediately. After the reset timeout a single probe
// call is let through in the half-open state: one success closes the breaker
// and clears the counter, one failure reopens it.
//
// Breakers are created lazily by the Registry on first use of a service name
// and every breaker guards its state with its own mutex, so compound
// transitions (count, compare, flip state) stay atomic under preemptive
// scheduling.
//
// # Usage
//
//	reg := breaker.NewRegistry(breaker.DefaultConfig())
//
//	flags, err := breaker.Do(ctx, reg, "featureFlags",
//		func(ctx context.Context) (Flags, error) {
//			return client.FetchFlags(ctx)
//		},
//		func(err error) Flags { return safeDefaults },
//	)
//
// A failure here means one logical call failed: callers that retry internally
// should wrap the whole retry sequence in one Do call so the breaker counts
// the sequence as a single failure.
package breaker
