// Package segment assigns users to experiment cohorts and keeps those
// assignments sticky.
//
// A segment is a named cohort (premium, beta, regular) with matching criteria
// and per-feature overrides. The first call to Engine.Assign classifies the
// user against the configured segments in priority order and persists the
// result; every later call returns the stored cohort regardless of profile
// drift, so a user's experiment condition never flips mid-session.
//
// Assignment storage is pluggable through the AssignmentStore interface.
// MemoryAssignmentStore serves tests and single-process setups;
// RedisAssignmentStore provides durable cross-process stickiness. When the
// store is unavailable the engine degrades to the regular cohort without
// persisting, trading experiment coverage for availability.
package segment
