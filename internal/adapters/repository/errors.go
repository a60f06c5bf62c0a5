package repository

import "errors"

// Sentinel kinds for in-memory backend errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidDate    = errors.New("invalid date format; want YYYY-MM-DD")
	ErrInvalidStatus  = errors.New("invalid attendance status")
	ErrInvalidToken   = errors.New("invalid student token")
	ErrDuplicateClass = errors.New("class already exists")
	ErrInvalidStudent = errors.New("invalid student")
	ErrInvalidClass   = errors.New("invalid class")
)
