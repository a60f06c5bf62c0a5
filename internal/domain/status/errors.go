package status

import (
	"errors"
	"fmt"
)

// Sentinel kinds for status errors.
var (
	ErrInvalidThreshold = errors.New("invalid threshold; want HH:MM")
	ErrUnknownStatus    = errors.New("unknown attendance status")
)

// ParseError reports an unrecognised status string.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unknown attendance status %q", e.Input)
}

// Unwrap lets callers match ErrUnknownStatus with errors.Is.
func (e *ParseError) Unwrap() error { return ErrUnknownStatus }
