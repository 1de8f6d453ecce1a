// Package bucket provides deterministic user bucketing for percentage-based
// feature rollouts.
//
// Bucketing maps an arbitrary identifier to a stable pseudo-random point in
// [0,1) using a truncated SHA-256 digest. The mapping is pure: the same
// identifier always lands on the same point, across calls and across process
// restarts. This guarantees that raising a rollout percentage only ever adds
// users to the rollout population, never removes or swaps them.
//
// # Usage
//
//	point := bucket.Hash("usr_123")       // 0.0 <= point < 1.0, stable
//	in := bucket.InRollout("usr_123", 25) // true for ~25% of identifiers
//
// Identifiers can be salted to decorrelate independent experiments:
//
//	bucket.Hash("usr_123:checkout-v2")
package bucket
