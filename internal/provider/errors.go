package provider

import (
	"errors"
	"fmt"
)

// Error wraps a provider failure with its retry classification. Transient
// failures (rate limits, timeouts, locked resources) are retried by the
// reconciler; permanent failures (invalid configuration, permission
// denied) are not.
type Error struct {
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e.Transient {
		return fmt.Sprintf("transient provider error: %v", e.Err)
	}
	return fmt.Sprintf("permanent provider error: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Transient: true, Err: err}
}

// Transientf formats a retryable error.
func Transientf(format string, args ...any) error {
	return &Error{Transient: true, Err: fmt.Errorf(format, args...)}
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Transient: false, Err: err}
}

// Permanentf formats a non-retryable error.
func Permanentf(format string, args ...any) error {
	return &Error{Transient: false, Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err is classified as retryable. Unclassified
// errors are treated as permanent: retrying an unknown failure against a
// mutating API risks compounding it.
func IsTransient(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return false
}
