package breaker

import "errors"

var (
	// ErrCircuitOpen indicates that the breaker rejected the call without
	// invoking the operation.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrUnknownService indicates that no breaker exists for the service
	// name.
	ErrUnknownService = errors.New("unknown circuit breaker service")
)

// IsCircuitOpen checks if an error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
