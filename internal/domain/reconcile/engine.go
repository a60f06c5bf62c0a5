package reconcile

import (
	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/status"
	"github.com/okian/absensi/internal/domain/types"
)

// ScanOutcome says what a scan event did to the current rows.
type ScanOutcome uint8

// Scan outcomes.
const (
	ScanApplied ScanOutcome = iota
	ScanIgnoredManual
	ScanIgnoredNoRow
)

func (o ScanOutcome) String() string {
	switch o {
	case ScanApplied:
		return "applied"
	case ScanIgnoredManual:
		return "manual_override"
	case ScanIgnoredNoRow:
		return "no_row"
	default:
		return "unknown"
	}
}

// Engine owns the current/original snapshot pair. It is not safe for
// concurrent use; the session event loop is its only caller.
type Engine struct {
	current  Snapshot
	original Snapshot
}

// NewEngine returns an engine with empty snapshots.
func NewEngine() *Engine {
	return &Engine{}
}

// Load replaces both snapshots with rows fresh from the server.
func (e *Engine) Load(rows []Row) {
	s := NewSnapshot(rows)
	e.current = s
	e.original = s
}

// Reset empties both snapshots.
func (e *Engine) Reset() {
	e.Load(nil)
}

// Current returns the live snapshot.
func (e *Engine) Current() Snapshot { return e.current }

// Original returns the baseline snapshot.
func (e *Engine) Original() Snapshot { return e.original }

// ApplyScan routes a scan event to the row with the same student id.
func (e *Engine) ApplyScan(ev model.ScanEvent, threshold status.Threshold) ScanOutcome {
	row, ok := e.current.Get(ev.StudentID)
	if !ok {
		return ScanIgnoredNoRow
	}
	if row.Manual {
		return ScanIgnoredManual
	}
	e.current, _ = e.current.With(ApplyScan(row, ev, threshold))
	return ScanApplied
}

// ApplyManual sets a human-selected status on a row. It returns false when
// the student is not part of the current selection.
func (e *Engine) ApplyManual(studentID int64, c status.Code) bool {
	row, ok := e.current.Get(studentID)
	if !ok {
		return false
	}
	e.current, _ = e.current.With(ApplyManual(row, c))
	return true
}

// Diff returns the rows eligible for a save.
func (e *Engine) Diff() []Row {
	return ComputeDiff(e.current, e.original)
}

// HasChanges reports whether a save would send anything.
func (e *Engine) HasChanges() bool {
	return len(e.Diff()) > 0
}

// Records returns the diff as wire records.
func (e *Engine) Records() []model.UpdateRecord {
	return Records(e.Diff())
}

// Summary counts the statuses of the current rows.
func (e *Engine) Summary() types.Summary {
	var s types.Summary
	for _, r := range e.current.Rows() {
		switch r.Status {
		case status.Present:
			s.Hadir++
		case status.Late:
			s.Terlambat++
		case status.Sick:
			s.Sakit++
		case status.Permission:
			s.Izin++
		case status.Absent:
			s.Alpha++
		default:
			s.Unset++
		}
	}
	s.Finalize()
	return s
}
