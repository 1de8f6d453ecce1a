// Package ttlcache provides a thread-safe, bounded cache with per-entry
// expiry, used for memoizing feature evaluation results.
//
// The cache combines LRU eviction (bounding memory under high-cardinality
// keys) with a fixed time-to-live per entry (bounding staleness of cached
// evaluations). Expired entries are treated as absent and evicted lazily on
// access.
//
// DeleteFunc supports targeted invalidation, e.g. dropping every cached
// result for a single feature when its configuration changes while leaving
// the rest of the cache warm.
package ttlcache
