// Package scansim drives the attendance API's /scan endpoint the way a
// classroom camera would: one card at a time with a pause in between.
package scansim

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	TokensFile string        // File with one token per line; empty generates demo tokens
	Secret     string        // Demo signing secret used when generating tokens
	StudentIDs []int64       // Students to generate tokens for
	Repeat     int           // Passes over the token list
	Shuffle    bool          // Randomise order within each pass
	Delay      time.Duration // Pause between two scans
	Timeout    time.Duration // HTTP request timeout
	Verbose    bool          // Log every scan
}

// ScanResponse is the subset of the scan result the simulator reads.
type ScanResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	StudentName    string `json:"student_name"`
	AlreadyScanned bool   `json:"already_scanned"`
}

// ErrorResponse is the API error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Outcome classifies one submitted scan.
type Outcome string

// Scan outcomes.
const (
	Accepted  Outcome = "accepted"
	Rejected  Outcome = "rejected"
	Cooldown  Outcome = "cooldown"
	Duplicate Outcome = "duplicate"
	Failed    Outcome = "failed"
)

// Stats holds run statistics.
type Stats struct {
	Submitted int
	Accepted  int
	Rejected  int
	Cooldown  int
	Duplicate int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

func (s *Stats) add(o Outcome) {
	s.Submitted++
	switch o {
	case Accepted:
		s.Accepted++
	case Rejected:
		s.Rejected++
	case Cooldown:
		s.Cooldown++
	case Duplicate:
		s.Duplicate++
	default:
		s.Failed++
	}
}
