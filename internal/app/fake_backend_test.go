package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/reconcile"
)

var wib = time.FixedZone("WIB", 7*60*60)

const (
	testDate  = "2024-07-15"
	testClass = "4A"
)

func at(h, m, s int) time.Time {
	return time.Date(2024, 7, 15, h, m, s, 0, wib)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

// fakeBackend is an in-test attendance backend whose calls can be gated
// and failed on demand.
type fakeBackend struct {
	mu sync.Mutex

	classes    []string
	classesErr error

	schedules   map[string]model.ClassSchedule
	scheduleErr error

	sheets        map[string][]model.StudentStatus
	attendanceErr error
	gates         map[string]chan struct{}
	started       chan string

	batchErr          error
	batchGate         chan struct{}
	batchStarted      chan struct{}
	batchCalls        []model.BatchUpdate
	failReloadOnBatch bool

	scanResults map[string]model.ScanResult
	scanErr     error
	scanCalls   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		classes: []string{"5B", "4A"},
		schedules: map[string]model.ClassSchedule{
			"4A": {ID: 1, ClassName: "4A", LateThresholdTime: "07:30", IsActive: true},
			"4B": {ID: 2, ClassName: "4B", LateThresholdTime: "08:00", IsActive: true},
		},
		sheets: map[string][]model.StudentStatus{
			sheetKey(testDate, "4A"): {
				{StudentID: 1, NIS: "1001", Name: "Andi", ClassName: "4A"},
				{StudentID: 2, NIS: "1002", Name: "Budi", ClassName: "4A", Status: strPtr("Present"), ScannedAt: timePtr(at(7, 45, 0))},
				{StudentID: 3, NIS: "1003", Name: "Citra", ClassName: "4A", Status: strPtr("Sick")},
				{StudentID: 4, NIS: "1004", Name: "Dewi", ClassName: "4A", Status: strPtr("Present"), ScannedAt: timePtr(at(7, 10, 0))},
			},
			sheetKey(testDate, "4B"): {
				{StudentID: 11, NIS: "2001", Name: "Eko", ClassName: "4B"},
			},
		},
		gates:       map[string]chan struct{}{},
		started:     make(chan string, 8),
		scanResults: map[string]model.ScanResult{},
	}
}

func sheetKey(date, class string) string { return date + "|" + class }

func (f *fakeBackend) Classes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.classesErr != nil {
		return nil, f.classesErr
	}
	return append([]string(nil), f.classes...), nil
}

func (f *fakeBackend) ClassSchedule(_ context.Context, class string) (model.ClassSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduleErr != nil {
		return model.ClassSchedule{}, f.scheduleErr
	}
	s, ok := f.schedules[class]
	if !ok {
		return model.ClassSchedule{}, errors.New("schedule not found")
	}
	return s, nil
}

func (f *fakeBackend) setSchedule(class, th string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.schedules[class]
	s.LateThresholdTime = th
	f.schedules[class] = s
}

// gate blocks ClassAttendance for class until the returned func is called.
func (f *fakeBackend) gate(class string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[class] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeBackend) ClassAttendance(ctx context.Context, date, class string) ([]model.StudentStatus, error) {
	f.mu.Lock()
	gate := f.gates[class]
	f.mu.Unlock()

	if gate != nil {
		f.started <- class
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attendanceErr != nil {
		return nil, f.attendanceErr
	}
	return append([]model.StudentStatus(nil), f.sheets[sheetKey(date, class)]...), nil
}

func (f *fakeBackend) BatchUpdate(ctx context.Context, req model.BatchUpdate) (model.BatchResult, error) {
	f.mu.Lock()
	gate, started := f.batchGate, f.batchStarted
	f.mu.Unlock()
	if gate != nil {
		close(started)
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, req)
	if f.batchErr != nil {
		return model.BatchResult{}, f.batchErr
	}

	key := sheetKey(req.Date, req.ClassName)
	rows := f.sheets[key]
	res := model.BatchResult{Message: "saved"}
	for _, rec := range req.Records {
		for i := range rows {
			if rows[i].StudentID != rec.StudentID {
				continue
			}
			if rows[i].Status == nil {
				res.Created++
			} else {
				res.Updated++
			}
			rows[i].Status = strPtr(rec.Status)
			rows[i].ScannedAt = nil
			if rec.ScanTime != "" {
				t, err := reconcile.ParseScanTime(rec.ScanTime)
				if err == nil {
					rows[i].ScannedAt = &t
				}
			}
		}
	}
	res.Total = res.Created + res.Updated
	f.sheets[key] = rows

	if f.failReloadOnBatch {
		f.attendanceErr = errors.New("backend went away")
	}
	return res, nil
}

func (f *fakeBackend) batches() []model.BatchUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.BatchUpdate(nil), f.batchCalls...)
}

func (f *fakeBackend) scans() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scanCalls
}

func (f *fakeBackend) Scan(_ context.Context, token string) (model.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls++
	if f.scanErr != nil {
		return model.ScanResult{}, f.scanErr
	}
	res, ok := f.scanResults[token]
	if !ok {
		return model.ScanResult{Success: false, Message: "invalid token"}, nil
	}
	return res, nil
}
