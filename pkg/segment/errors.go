package segment

import "errors"

var (
	// ErrAssignmentNotFound indicates that no stored assignment exists for
	// the user.
	ErrAssignmentNotFound = errors.New("segment assignment not found")

	// ErrInvalidSegment indicates that a segment definition failed
	// validation.
	ErrInvalidSegment = errors.New("invalid segment definition")

	// ErrStoreUnavailable indicates that the assignment store could not be
	// reached.
	ErrStoreUnavailable = errors.New("assignment store unavailable")
)
