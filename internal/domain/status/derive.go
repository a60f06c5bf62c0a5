package status

import "time"

// Derive maps a scan instant to Present or Late. A scan exactly at the
// cut-off counts as on time. Sick, Permission and Absent are never derived.
func Derive(scanAt time.Time, threshold Threshold) Code {
	if scanAt.After(threshold.Cutoff(scanAt)) {
		return Late
	}
	return Present
}
