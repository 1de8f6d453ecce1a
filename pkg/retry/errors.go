package retry

import "errors"

// ErrRetriesExhausted indicates that the operation kept failing through the
// final attempt. The last operation error is attached to it.
var ErrRetriesExhausted = errors.New("retries exhausted")
