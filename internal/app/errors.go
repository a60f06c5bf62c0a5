package app

import (
	"errors"

	"github.com/okian/absensi/internal/domain/dedupe"
)

// Sentinel kinds for session and scanner errors.
var (
	ErrNotStarted       = errors.New("session not started")
	ErrStopped          = errors.New("session stopped")
	ErrTaskFailed       = errors.New("session task failed")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrNoSelection      = errors.New("no class selected")
	ErrSuperseded       = errors.New("selection superseded by a newer one")
	ErrLoadInProgress   = errors.New("attendance is loading")
	ErrSaveInProgress   = errors.New("save in progress")
	ErrResync           = errors.New("saved but reloading attendance failed")
	ErrUnknownStudent   = errors.New("student not in current selection")
	ErrInvalidStatus    = errors.New("status must be one of Present, Late, Sick, Permission, Absent")

	ErrEmptyToken    = errors.New("scan token is empty")
	ErrCooldown      = dedupe.ErrCooldown
	ErrDuplicateScan = dedupe.ErrDuplicate
)
