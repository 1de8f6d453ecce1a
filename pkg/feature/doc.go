// Package feature evaluates feature flags per user with percentage rollout,
// dependency graphs, segment overrides, and contextual downgrade rules.
//
// Evaluation resolves in fixed stages:
//
//  1. The user's cohort is resolved through the segmentation engine.
//  2. Every dependency is evaluated recursively; a disabled dependency
//     short-circuits the feature to disabled. Cycles fail closed instead of
//     recursing forever.
//  3. The flag must be enabled and the user inside its rollout percentage.
//  4. The user's segment must carry an override for the feature; a missing
//     override disables it.
//  5. Contextual rules may downgrade (never upgrade) the result: heavy
//     features shed under load, variants simplify for short sessions, and
//     time-sensitive features switch off outside their hour window. The
//     first matching rule wins.
//
// Results are cached per (feature, user) with a fixed TTL and invalidated
// when the feature's configuration changes. Each fresh evaluation emits an
// analytics event; sink failures never affect the result.
//
// Evaluate only returns an error when the flag configuration itself cannot
// be loaded. Every policy outcome, including unknown features and dependency
// cycles, is expressed as a disabled Result with a reason.
package feature
