package feature

import "errors"

var (
	// ErrFlagNotFound indicates that the requested feature flag does not
	// exist in the configuration.
	ErrFlagNotFound = errors.New("feature flag not found")

	// ErrInvalidFlag indicates that a flag definition failed validation.
	ErrInvalidFlag = errors.New("invalid feature flag definition")

	// ErrCycleDetected indicates a cycle in the flag dependency graph.
	// This is a configuration error, not a transient fault.
	ErrCycleDetected = errors.New("feature dependency cycle detected")

	// ErrConfigUnavailable indicates that the flag configuration could not
	// be loaded.
	ErrConfigUnavailable = errors.New("feature configuration unavailable")
)
