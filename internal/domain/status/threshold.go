package status

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultThreshold is used whenever a class schedule cannot be read.
var DefaultThreshold = Threshold{Hour: 7, Minute: 30} //nolint:gochecknoglobals // immutable default

// Threshold is a late cut-off time of day with no date component.
type Threshold struct {
	Hour   int
	Minute int
}

// ParseThreshold parses an "HH:MM" string.
func ParseThreshold(s string) (Threshold, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Threshold{}, fmt.Errorf("%w: %q", ErrInvalidThreshold, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return Threshold{}, fmt.Errorf("%w: %q", ErrInvalidThreshold, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return Threshold{}, fmt.Errorf("%w: %q", ErrInvalidThreshold, s)
	}
	t := Threshold{Hour: h, Minute: m}
	if !t.Valid() {
		return Threshold{}, fmt.Errorf("%w: %q", ErrInvalidThreshold, s)
	}
	return t, nil
}

// ParseThresholdOr parses s and falls back to def when s is not a valid
// "HH:MM" value.
func ParseThresholdOr(s string, def Threshold) Threshold {
	t, err := ParseThreshold(s)
	if err != nil {
		return def
	}
	return t
}

// Valid reports whether the hour and minute are in range.
func (t Threshold) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// Cutoff returns the cut-off instant on the calendar date of at, in at's
// location, with seconds and nanoseconds zeroed.
func (t Threshold) Cutoff(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(), t.Hour, t.Minute, 0, 0, at.Location())
}

func (t Threshold) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalText encodes the threshold as "HH:MM".
func (t Threshold) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes an "HH:MM" value.
func (t *Threshold) UnmarshalText(b []byte) error {
	v, err := ParseThreshold(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
