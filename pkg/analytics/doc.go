// Package analytics records experimentation events in an append-only log.
//
// Every feature evaluation, rollout step, and emergency disable emits an
// Event to a Sink. Sinks are fire-and-forget from the engine's point of
// view: a failing sink must never fail an evaluation, so the engine logs and
// drops on error rather than propagating.
//
// Implementations:
//   - MemorySink: bounded in-process ring, for tests and local development.
//   - AsyncSink: buffered channel in front of any sink, dropping the oldest
//     events under backpressure.
//   - PostgresSink: append-only table via pgx, schema managed with goose.
//   - OpenSearchSink: one document per event for ad-hoc experiment analysis.
package analytics
