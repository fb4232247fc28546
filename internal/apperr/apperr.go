package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied is a generic sentinel for ownership failures.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotAuthenticated means no acting user id was supplied.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// InvalidOperationError marks a structural rule violation: assigning viewable
// content as a parent, writing progress to organisational content, values
// outside 0..100. Callers must not retry without correcting input.
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation: %s", e.Reason)
}

func InvalidOperation(format string, args ...interface{}) error {
	return &InvalidOperationError{Reason: fmt.Sprintf(format, args...)}
}

func IsInvalidOperation(err error) bool {
	var ioe *InvalidOperationError
	return errors.As(err, &ioe)
}
