// Package types contains common read shapes used across the application
package types

import "math"

// Summary counts the statuses currently displayed for a class
type Summary struct {
	Hadir          int     `json:"hadir"`
	Terlambat      int     `json:"terlambat"`
	Sakit          int     `json:"sakit"`
	Izin           int     `json:"izin"`
	Alpha          int     `json:"alpha"`
	Unset          int     `json:"unset"`
	TotalStudents  int     `json:"total_students"`
	TotalPresent   int     `json:"total_present"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// Finalize fills the derived totals. Students marked late still count as
// present for the attendance rate, which is a percentage rounded to one
// decimal place.
func (s *Summary) Finalize() {
	s.TotalStudents = s.Hadir + s.Terlambat + s.Sakit + s.Izin + s.Alpha + s.Unset
	s.TotalPresent = s.Hadir + s.Terlambat
	if s.TotalStudents == 0 {
		s.AttendanceRate = 0
		return
	}
	rate := float64(s.TotalPresent) / float64(s.TotalStudents) * 100
	s.AttendanceRate = math.Round(rate*10) / 10
}
