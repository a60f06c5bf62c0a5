package reconcile

import (
	"time"

	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/status"
)

// isoMillis matches the millisecond ISO-8601 form browsers produce.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ComputeDiff returns the rows of current whose status is set and differs
// from the baseline status for the same student; a missing baseline counts
// as unset. Rows without a status are never returned, so a diff can assign
// statuses but never clear them. Order follows current.
func ComputeDiff(current, original Snapshot) []Row {
	var out []Row
	for _, r := range current.Rows() {
		if !r.Status.IsSet() {
			continue
		}
		base := status.None
		if o, ok := original.Get(r.ID()); ok {
			base = o.Status
		}
		if r.Status != base {
			out = append(out, r)
		}
	}
	return out
}

// Record projects a row to its batch-update wire record.
func Record(r Row) model.UpdateRecord {
	rec := model.UpdateRecord{
		StudentID: r.ID(),
		Status:    r.Status.Label(),
	}
	if r.HasScanTime() {
		rec.ScanTime = r.ScanTime.UTC().Format(isoMillis)
	}
	return rec
}

// Records projects a diff to wire records.
func Records(rows []Row) []model.UpdateRecord {
	out := make([]model.UpdateRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record(r))
	}
	return out
}

// ParseScanTime is the inverse of the scan_time encoding used by Record.
func ParseScanTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
