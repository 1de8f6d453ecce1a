// Package fallback resolves safe static defaults for degraded services.
//
// When a circuit breaker is open or an operation has exhausted its retries,
// callers substitute the real result with a fallback payload keyed by logical
// service name. Payloads are deliberately conservative: features read as
// disabled, recommendations collapse to generic safe advice.
//
// Default never fails, for any input: a service without a registered payload
// resolves to an explicit "no fallback available" marker value rather than an
// error, so degradation paths cannot themselves degrade.
package fallback
