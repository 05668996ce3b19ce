package backend

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/counsellor-web/internal/errors"
)

// StatusError is returned when the backend answers with a non-2xx status.
// Message carries the backend's "message" field when it sent one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend status %d", e.StatusCode)
}

// Unwrap maps well-known statuses onto the shared sentinel errors
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return errors.ErrInvalidCredentials
	case http.StatusNotFound:
		return errors.ErrNotFound
	}
	if e.StatusCode >= 500 {
		return errors.ErrBackendUnavailable
	}
	return nil
}

// UserMessage returns a message suitable for showing to the user, or fallback.
func UserMessage(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
