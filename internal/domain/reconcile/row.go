// Package reconcile holds the attendance editing state of one (date, class):
// per-student rows, the server baseline they are compared against, and the
// diff that is eligible for a batch save.
//
// Rows are values. Every update returns a new Row or Snapshot, so a
// baseline captured at load time can never be changed by later edits.
package reconcile

import (
	"time"

	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/status"
)

// Row is the view state of one student for the selected (date, class).
type Row struct {
	Student model.Student
	// Status is what is shown and what would be saved.
	Status status.Code
	// ScanTime is set when Status came from a scan; zero otherwise.
	ScanTime time.Time
	// Manual is sticky for the loaded session: once a person picked a
	// status, scans no longer touch the row.
	Manual bool
}

// ID returns the stable row key.
func (r Row) ID() int64 { return r.Student.ID }

// HasScanTime reports whether the row carries a scan instant.
func (r Row) HasScanTime() bool { return !r.ScanTime.IsZero() }

// ApplyScan returns r updated by a scan event. Manual rows are returned
// unchanged.
func ApplyScan(r Row, ev model.ScanEvent, threshold status.Threshold) Row {
	if r.Manual {
		return r
	}
	r.Status = status.Derive(ev.ScannedAt, threshold)
	r.ScanTime = ev.ScannedAt
	r.Manual = false
	return r
}

// ApplyManual returns r with a human-selected status. The scan time is
// dropped because it no longer describes how the status was produced.
func ApplyManual(r Row, c status.Code) Row {
	r.Status = c
	r.Manual = true
	r.ScanTime = time.Time{}
	return r
}

// FromServer builds a fresh row from a fetched record. Only rows stored as
// Present with a scan time are re-derived against the live threshold; every
// other label is taken verbatim. loc may be nil to keep the decoded zone.
func FromServer(rec model.StudentStatus, threshold status.Threshold, loc *time.Location) Row {
	r := Row{Student: rec.Student()}
	if rec.ScannedAt != nil {
		r.ScanTime = *rec.ScannedAt
		if loc != nil {
			r.ScanTime = r.ScanTime.In(loc)
		}
	}
	if rec.Status == nil {
		return r
	}
	code, _ := status.FromLabel(*rec.Status)
	if code == status.Present && r.HasScanTime() {
		code = status.Derive(r.ScanTime, threshold)
	}
	r.Status = code
	return r
}

// FromServerAll maps a fetched row list, keeping server order.
func FromServerAll(recs []model.StudentStatus, threshold status.Threshold, loc *time.Location) []Row {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, FromServer(rec, threshold, loc))
	}
	return rows
}
