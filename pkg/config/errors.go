package config

import "errors"

var (
	// ErrNilPointer indicates that a nil target was passed to Load.
	ErrNilPointer = errors.New("config target cannot be nil")

	// ErrParsingConfig indicates that environment variables could not be
	// parsed into the target struct.
	ErrParsingConfig = errors.New("failed to parse config from environment")
)
