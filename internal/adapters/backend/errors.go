package backend

import (
	"errors"
	"fmt"
)

// Sentinel kinds for backend errors.
var (
	ErrInvalidURL   = errors.New("invalid backend url")
	ErrUnavailable  = errors.New("backend unavailable")
	ErrUnauthorized = errors.New("backend rejected credentials")
	ErrNotFound     = errors.New("backend resource not found")
	ErrBackend      = errors.New("backend error")
	ErrDecode       = errors.New("backend response malformed")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Endpoint string
	Code     int
	Detail   string
	Err      error
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %d: %s", e.Endpoint, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: %d", e.Endpoint, e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }
