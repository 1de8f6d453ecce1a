package rollout

import "errors"

var (
	// ErrInvalidTarget indicates a target percentage outside [0,100].
	ErrInvalidTarget = errors.New("rollout target must be within [0,100]")

	// ErrInvalidStep indicates a non-positive step size.
	ErrInvalidStep = errors.New("rollout step must be positive")
)
