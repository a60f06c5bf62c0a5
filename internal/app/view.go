package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/absensi/internal/domain/reconcile"
	"github.com/okian/absensi/internal/domain/types"
)

// dateLayout is the backend's date format.
const dateLayout = "2006-01-02"

// Selection identifies the attendance sheet being edited.
type Selection struct {
	Date  string `json:"date"`
	Class string `json:"class_name"`
}

// IsZero reports whether nothing is selected.
func (s Selection) IsZero() bool { return s.Date == "" && s.Class == "" }

// Validate checks the date format and that a class is named.
func (s Selection) Validate() error {
	if strings.TrimSpace(s.Class) == "" {
		return fmt.Errorf("%w: class is required", ErrInvalidSelection)
	}
	if _, err := time.Parse(dateLayout, s.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidSelection, s.Date)
	}
	return nil
}

// RowView is the read shape of one attendance row.
type RowView struct {
	StudentID int64      `json:"student_id"`
	NIS       string     `json:"nis"`
	Name      string     `json:"name"`
	ClassName string     `json:"class_name"`
	PhotoPath *string    `json:"photo_path,omitempty"`
	Status    string     `json:"status,omitempty"`
	Letter    string     `json:"letter,omitempty"`
	ScanTime  *time.Time `json:"scan_time,omitempty"`
	Manual    bool       `json:"manual"`
	Changed   bool       `json:"changed"`
}

func rowView(r reconcile.Row, changed bool) RowView {
	v := RowView{
		StudentID: r.Student.ID,
		NIS:       r.Student.NIS,
		Name:      r.Student.Name,
		ClassName: r.Student.ClassName,
		PhotoPath: r.Student.PhotoPath,
		Status:    r.Status.Label(),
		Letter:    r.Status.Letter(),
		Manual:    r.Manual,
		Changed:   changed,
	}
	if r.HasScanTime() {
		t := r.ScanTime
		v.ScanTime = &t
	}
	return v
}

// View is everything a client needs to render the attendance sheet.
type View struct {
	Selection  Selection     `json:"selection"`
	Threshold  string        `json:"late_threshold"`
	Classes    []string      `json:"classes"`
	Rows       []RowView     `json:"rows"`
	Summary    types.Summary `json:"summary"`
	Pending    int           `json:"pending_changes"`
	HasChanges bool          `json:"has_changes"`
	Loading    bool          `json:"loading"`
	Saving     bool          `json:"saving"`
	Generation uint64        `json:"generation"`
}

// SaveOutcome reports what a save did.
type SaveOutcome struct {
	NoChanges bool   `json:"no_changes"`
	Sent      int    `json:"sent"`
	Updated   int    `json:"updated"`
	Created   int    `json:"created"`
	Total     int    `json:"total"`
	Message   string `json:"message,omitempty"`
}
