package errors

import (
	"errors"
	"fmt"
)

// Common error types for the counsellor web front
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not logged in")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrStorageClosed   = errors.New("session storage closed")

	// Profile errors
	ErrProfileMissing = errors.New("profile not found")

	// Backend errors
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrInvalidResponse    = errors.New("invalid backend response")

	// Shortlist errors
	ErrNotShortlisted = errors.New("university is not shortlisted")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import
func New(text string) error {
	return errors.New(text)
}
