package configstore

import "errors"

var (
	// ErrNotFound indicates that the requested document has never been
	// stored.
	ErrNotFound = errors.New("configuration document not found")

	// ErrVersionConflict indicates that a write carried a version older than
	// the stored document. The writer must reload and retry.
	ErrVersionConflict = errors.New("configuration version conflict")

	// ErrStoreUnavailable indicates that the backing store could not be
	// reached.
	ErrStoreUnavailable = errors.New("configuration store unavailable")

	// ErrInvalidDocument indicates that a document failed validation and was
	// not stored.
	ErrInvalidDocument = errors.New("invalid configuration document")
)

// IsNotFound reports whether the error indicates a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsVersionConflict reports whether the error indicates a stale write.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
