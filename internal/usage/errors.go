package usage

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionUnavailable means the permission check itself could not
	// run. Callers treat it exactly like "not granted".
	ErrPermissionUnavailable = errors.New("usage access check unavailable")

	// ErrPermissionDenied means usage access has not been granted; no query
	// is attempted.
	ErrPermissionDenied = errors.New("usage access not granted")

	// ErrQuery matches every *QueryError.
	ErrQuery = errors.New("usage query failed")

	// ErrMetadataNotFound means the package is no longer installed. It only
	// ever drops a single record.
	ErrMetadataNotFound = errors.New("app not found")

	// ErrInvalidDays is returned by PastDays for n < 1.
	ErrInvalidDays = errors.New("days must be at least 1")
)

// QueryError reports a failed or malformed usage query.
type QueryError struct {
	Window TimeWindow
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("usage query %s failed: %v", e.Window, e.Err)
}

func (e *QueryError) Unwrap() []error {
	return []error{ErrQuery, e.Err}
}
