package backend

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/absensi/internal/domain/model"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type classesResponse struct {
	Classes []string `json:"classes"`
}

type scanRequest struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}

// studentStatus mirrors model.StudentStatus with the timestamp still raw;
// the backend may send it with or without a zone.
type studentStatus struct {
	StudentID int64   `json:"student_id"`
	NIS       string  `json:"nis"`
	Name      string  `json:"name"`
	ClassName string  `json:"class_name"`
	PhotoPath *string `json:"photo_path"`
	Status    *string `json:"status"`
	ScannedAt *string `json:"scanned_at"`
}

func (r studentStatus) model(loc *time.Location) (model.StudentStatus, error) {
	out := model.StudentStatus{
		StudentID: r.StudentID,
		NIS:       r.NIS,
		Name:      r.Name,
		ClassName: r.ClassName,
		PhotoPath: r.PhotoPath,
		Status:    r.Status,
	}
	if r.ScannedAt != nil && *r.ScannedAt != "" {
		t, err := parseTimestamp(*r.ScannedAt, loc)
		if err != nil {
			return out, err
		}
		out.ScannedAt = &t
	}
	return out, nil
}

var naiveLayouts = []string{ //nolint:gochecknoglobals // fixed lookup table
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// parseTimestamp accepts RFC 3339 and zone-less ISO forms; the latter are
// read in loc.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrDecode, s)
}

// detail extracts a readable message from a FastAPI style error body.
func (e errorResponse) detail() string {
	switch d := e.Detail.(type) {
	case string:
		return d
	case nil:
		return ""
	default:
		return fmt.Sprint(d)
	}
}
