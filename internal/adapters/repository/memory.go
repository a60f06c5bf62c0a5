package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/reconcile"
	"github.com/okian/absensi/internal/domain/status"
	"github.com/okian/absensi/pkg/logger"
)

const dateLayout = "2006-01-02"

// attendance is one stored status of a student on a date.
type attendance struct {
	id        int64
	status    string
	scannedAt time.Time
}

// Memory is an in-memory attendance backend. It is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	schedules map[string]model.ClassSchedule
	students  map[int64]model.Student
	records   map[string]map[int64]attendance // date -> student id -> record
	nextID    int64

	secret []byte
	loc    *time.Location
	clock  func() time.Time
	log    logger.Logger
}

// NewMemory returns an empty backend.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		schedules: make(map[string]model.ClassSchedule),
		students:  make(map[int64]model.Student),
		records:   make(map[string]map[int64]attendance),
		secret:    []byte(DefaultSecret),
		loc:       time.Local,
		clock:     time.Now,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddClass registers a class with its late threshold (HH:MM).
func (m *Memory) AddClass(name, threshold string) error {
	if name == "" {
		return fmt.Errorf("add class: %w", ErrInvalidClass)
	}
	if _, err := status.ParseThreshold(threshold); err != nil {
		return fmt.Errorf("add class %q: %w", name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[name]; ok {
		return fmt.Errorf("add class %q: %w", name, ErrDuplicateClass)
	}
	m.schedules[name] = model.ClassSchedule{
		ID:                int64(len(m.schedules) + 1),
		ClassName:         name,
		LateThresholdTime: threshold,
		IsActive:          true,
	}
	return nil
}

// SetThreshold changes the late threshold of an existing class.
func (m *Memory) SetThreshold(name, threshold string) error {
	if _, err := status.ParseThreshold(threshold); err != nil {
		return fmt.Errorf("set threshold %q: %w", name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[name]
	if !ok {
		return fmt.Errorf("set threshold %q: %w", name, ErrNotFound)
	}
	s.LateThresholdTime = threshold
	m.schedules[name] = s
	return nil
}

// AddStudent registers or replaces a student. The class must exist.
func (m *Memory) AddStudent(s model.Student) error {
	if s.ID <= 0 || s.Name == "" {
		return fmt.Errorf("add student %d: %w", s.ID, ErrInvalidStudent)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ClassName]; !ok {
		return fmt.Errorf("add student %d: class %q: %w", s.ID, s.ClassName, ErrNotFound)
	}
	m.students[s.ID] = s
	return nil
}

// IssueToken signs a fresh card token for a registered student.
func (m *Memory) IssueToken(studentID int64) (string, error) {
	m.mu.RLock()
	_, ok := m.students[studentID]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("issue token %d: %w", studentID, ErrNotFound)
	}
	return SignToken(m.secret, studentID, m.clock())
}

// Classes lists every registered class name in ascending order.
func (m *Memory) Classes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.schedules))
	for name := range m.schedules {
		out = append(out, name)
	}
	slices.Sort(out)
	return out, nil
}

// ClassSchedule returns the schedule of a class or ErrNotFound.
func (m *Memory) ClassSchedule(ctx context.Context, className string) (model.ClassSchedule, error) {
	if err := ctx.Err(); err != nil {
		return model.ClassSchedule{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[className]
	if !ok {
		return model.ClassSchedule{}, fmt.Errorf("class schedule %q: %w", className, ErrNotFound)
	}
	return s, nil
}

// ClassAttendance returns every student of className ordered by name, each
// with the status stored for date. An unknown class yields an empty list.
func (m *Memory) ClassAttendance(ctx context.Context, date, className string) ([]model.StudentStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("class attendance %q: %w", date, ErrInvalidDate)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	day := m.records[date]
	out := make([]model.StudentStatus, 0)
	for _, s := range m.students {
		if s.ClassName != className {
			continue
		}
		row := model.StudentStatus{
			StudentID: s.ID,
			NIS:       s.NIS,
			Name:      s.Name,
			ClassName: s.ClassName,
			PhotoPath: s.PhotoPath,
		}
		if rec, ok := day[s.ID]; ok {
			label := rec.status
			at := rec.scannedAt
			row.Status = &label
			row.ScannedAt = &at
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b model.StudentStatus) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.StudentID, b.StudentID))
	})
	return out, nil
}

// BatchUpdate upserts the statuses of one class and date. Records for
// unknown students are skipped. A record without scan_time is stamped with
// the current time.
func (m *Memory) BatchUpdate(ctx context.Context, req model.BatchUpdate) (model.BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return model.BatchResult{}, err
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return model.BatchResult{}, fmt.Errorf("batch update %q: %w", req.Date, ErrInvalidDate)
	}
	for _, r := range req.Records {
		if _, ok := status.FromLabel(r.Status); !ok {
			return model.BatchResult{}, fmt.Errorf("batch update student %d: %w: %q", r.StudentID, ErrInvalidStatus, r.Status)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock().In(m.loc)
	day := m.day(req.Date)
	var res model.BatchResult
	for _, r := range req.Records {
		if _, ok := m.students[r.StudentID]; !ok {
			m.log.Warn(ctx, "batch update skipped unknown student", logger.Int64("student_id", r.StudentID))
			continue
		}
		at := now
		if r.ScanTime != "" {
			if t, err := reconcile.ParseScanTime(r.ScanTime); err == nil {
				at = t.In(m.loc)
			}
		}
		rec, exists := day[r.StudentID]
		if exists {
			res.Updated++
		} else {
			m.nextID++
			rec.id = m.nextID
			res.Created++
		}
		rec.status = r.Status
		rec.scannedAt = at
		day[r.StudentID] = rec
	}
	res.Total = res.Updated + res.Created
	res.Message = "Batch update completed"
	return res, nil
}

// Scan records a Present arrival for the student a token belongs to. A second
// scan on the same day is reported with AlreadyScanned and changes nothing.
// Bad tokens and unknown students are unsuccessful results, not errors.
func (m *Memory) Scan(ctx context.Context, token string) (model.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ScanResult{}, err
	}
	id, err := VerifyToken(m.secret, token)
	if err != nil {
		m.log.Debug(ctx, "scan rejected", logger.Error(err))
		return model.ScanResult{Success: false, Message: "Token verification failed"}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return model.ScanResult{Success: false, Message: "Student not found or token expired"}, nil
	}
	now := m.clock().In(m.loc)
	day := m.day(now.Format(dateLayout))
	if rec, ok := day[s.ID]; ok {
		return model.ScanResult{
			Success:        false,
			Message:        s.Name + " sudah melakukan absensi hari ini",
			StudentName:    s.Name,
			StudentClass:   s.ClassName,
			AttendanceID:   rec.id,
			AlreadyScanned: true,
		}, nil
	}
	m.nextID++
	day[s.ID] = attendance{id: m.nextID, status: status.Present.Label(), scannedAt: now}
	student := s
	return model.ScanResult{
		Success:      true,
		Message:      "Absensi berhasil untuk " + s.Name,
		StudentName:  s.Name,
		StudentClass: s.ClassName,
		AttendanceID: m.nextID,
		Student:      &student,
	}, nil
}

// day returns the record map of date, creating it. Callers hold mu.
func (m *Memory) day(date string) map[int64]attendance {
	d, ok := m.records[date]
	if !ok {
		d = make(map[int64]attendance)
		m.records[date] = d
	}
	return d
}
