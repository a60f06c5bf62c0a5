// Package model contains domain models passed between layers and the wire
// shapes of the external attendance backend.
package model

import "time"

// Student is the display identity of a student as returned by the backend.
type Student struct {
	ID        int64   `json:"id"`
	NIS       string  `json:"nis"`
	Name      string  `json:"name"`
	ClassName string  `json:"class_name"`
	PhotoPath *string `json:"photo_path,omitempty"`
}

// ClassSchedule is the per-class late threshold configuration.
type ClassSchedule struct {
	ID                int64  `json:"id"`
	ClassName         string `json:"class_name"`
	LateThresholdTime string `json:"late_threshold_time"` // HH:MM
	IsActive          bool   `json:"is_active"`
}

// StudentStatus is one row of GET /attendance/class-attendance.
type StudentStatus struct {
	StudentID int64      `json:"student_id"`
	NIS       string     `json:"nis"`
	Name      string     `json:"name"`
	ClassName string     `json:"class_name"`
	PhotoPath *string    `json:"photo_path"`
	Status    *string    `json:"status"`
	ScannedAt *time.Time `json:"scanned_at"`
}

// Student returns the identity part of the row.
func (s StudentStatus) Student() Student {
	return Student{
		ID:        s.StudentID,
		NIS:       s.NIS,
		Name:      s.Name,
		ClassName: s.ClassName,
		PhotoPath: s.PhotoPath,
	}
}

// UpdateRecord is one changed row sent in a batch update.
type UpdateRecord struct {
	StudentID int64  `json:"student_id"`
	Status    string `json:"status"`
	// ScanTime is ISO-8601 and omitted for manually assigned statuses.
	ScanTime string `json:"scan_time,omitempty"`
}

// BatchUpdate is the body of POST /attendance/batch-update.
type BatchUpdate struct {
	Date      string         `json:"date"` // YYYY-MM-DD
	ClassName string         `json:"class_name"`
	Records   []UpdateRecord `json:"records"`
}

// BatchResult is the response of a batch update.
type BatchResult struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
	Created int    `json:"created"`
	Total   int    `json:"total"`
}

// ScanResult is the response of POST /attendance/scan.
type ScanResult struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	StudentName     string   `json:"student_name,omitempty"`
	StudentClass    string   `json:"student_class,omitempty"`
	StudentPhotoURL string   `json:"student_photo_url,omitempty"`
	AttendanceID    int64    `json:"attendance_id,omitempty"`
	AlreadyScanned  bool     `json:"already_scanned"`
	Student         *Student `json:"student,omitempty"`
}

// ScanEvent is broadcast when a scan is attributed to a student.
// It is never persisted.
type ScanEvent struct {
	ID          string    // uuid, for tracing only
	StudentID   int64     // row key
	StudentNIS  string    // display convenience
	StudentName string    // display convenience
	ScannedAt   time.Time // scan instant in the school's location
	Token       string    // raw scanned token
}
