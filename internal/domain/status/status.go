// Package status defines attendance status codes and the late/on-time
// derivation used for scan-driven arrivals.
package status

import "strings"

// Code is an attendance status for one student on one (date, class).
// The zero value None means no status has been set.
type Code uint8

// Attendance status codes.
const (
	None Code = iota
	Present
	Late
	Sick
	Permission
	Absent
)

// All lists the assignable codes in display order (H, T, S, I, A).
var All = []Code{Present, Late, Sick, Permission, Absent} //nolint:gochecknoglobals // fixed lookup table

type codeInfo struct {
	label   string // server vocabulary
	letter  string // compact UI code
	display string // Indonesian name shown on the dashboard
}

var codes = map[Code]codeInfo{ //nolint:gochecknoglobals // fixed lookup table
	Present:    {label: "Present", letter: "H", display: "Hadir"},
	Late:       {label: "Late", letter: "T", display: "Terlambat"},
	Sick:       {label: "Sick", letter: "S", display: "Sakit"},
	Permission: {label: "Permission", letter: "I", display: "Izin"},
	Absent:     {label: "Absent", letter: "A", display: "Alpha"},
}

// Label returns the server vocabulary label, or "" for None.
func (c Code) Label() string { return codes[c].label }

// Letter returns the one-letter UI code (H, T, S, I, A), or "" for None.
func (c Code) Letter() string { return codes[c].letter }

// Display returns the Indonesian display name.
func (c Code) Display() string { return codes[c].display }

// IsSet reports whether c carries a status.
func (c Code) IsSet() bool {
	_, ok := codes[c]
	return ok
}

func (c Code) String() string {
	if !c.IsSet() {
		return "none"
	}
	return c.Label()
}

// FromLabel maps a server label to its code. Unknown or empty labels map to
// None and ok=false.
func FromLabel(label string) (Code, bool) {
	for c, info := range codes {
		if info.label == label {
			return c, true
		}
	}
	return None, false
}

// Parse accepts either a server label ("Late") or a UI letter ("T"),
// case-insensitively.
func Parse(s string) (Code, error) {
	s = strings.TrimSpace(s)
	for c, info := range codes {
		if strings.EqualFold(info.label, s) || strings.EqualFold(info.letter, s) {
			return c, nil
		}
	}
	return None, &ParseError{Input: s}
}
