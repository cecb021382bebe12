package twin

import "errors"

// Sentinel kinds for twin errors.
var (
	ErrNonMonotonicTime = errors.New("event precedes twin state")
	ErrMissingDate      = errors.New("session date is required")
	ErrNilTwin          = errors.New("twin is nil")
)
