package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrInvalidStudentID = errors.New("student id must be a positive integer")
)
