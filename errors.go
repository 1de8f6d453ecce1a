package experimentkit

import "errors"

var (
	// ErrSegmentNotFound indicates that the named segment does not exist in
	// the configuration.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrSegmentInUse indicates that a segment cannot be deleted because it
	// is the default cohort.
	ErrSegmentInUse = errors.New("segment cannot be deleted")
)
