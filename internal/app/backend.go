package app

import (
	"context"

	"github.com/okian/absensi/internal/domain/model"
)

// ScanSubmitter sends a scanned token to the attendance backend.
type ScanSubmitter interface {
	Scan(ctx context.Context, token string) (model.ScanResult, error)
}

// Backend is the slice of the attendance backend the session depends on.
type Backend interface {
	ScanSubmitter

	// Classes lists the class names known to the backend.
	Classes(ctx context.Context) ([]string, error)

	// ClassSchedule returns the late threshold configuration of a class.
	ClassSchedule(ctx context.Context, className string) (model.ClassSchedule, error)

	// ClassAttendance returns every student of a class with their status
	// on date (YYYY-MM-DD).
	ClassAttendance(ctx context.Context, date, className string) ([]model.StudentStatus, error)

	// BatchUpdate writes changed statuses in one call.
	BatchUpdate(ctx context.Context, req model.BatchUpdate) (model.BatchResult, error)
}
