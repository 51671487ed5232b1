package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("rejected by the finance API")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("finance API unavailable")
)

// StatusError is a non-2xx answer from the finance API. Err is the sentinel
// the status maps to, when there is one.
type StatusError struct {
	Code    int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api status %d", e.Code)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the call may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}

func sentinelFor(code int) error {
	switch {
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusConflict:
		return ErrConflict
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return ErrValidation
	case code >= http.StatusInternalServerError:
		return ErrUnavailable
	default:
		return nil
	}
}

// UserMessage returns text fit to show in the UI for err.
func UserMessage(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, ErrNotFound):
		return "The requested item no longer exists."
	case errors.As(err, &se) && se.Message != "" && se.Code < http.StatusInternalServerError:
		return se.Message
	case errors.Is(err, ErrValidation):
		return "The finance service rejected the request. Please check the form."
	case errors.Is(err, ErrConflict):
		return "That item already exists."
	default:
		return "The finance service is unreachable right now. Please try again."
	}
}
