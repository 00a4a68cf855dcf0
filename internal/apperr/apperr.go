// Package apperr defines the error taxonomy shared by the business-rule
// packages: not-found, conflict/validation, and everything else
// (persistence failure). Handlers map these onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound marks errors for entity ids that could not be resolved.
var ErrNotFound = errors.New("not found")

// ErrConflict marks constraint violations: duplicate external ids,
// deletion blocked by references, malformed field values.
var ErrConflict = errors.New("conflict")

// NotFound wraps ErrNotFound with a descriptive message.
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Conflict wraps ErrConflict with a descriptive message.
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a conflict or validation error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
