package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/absensi/internal/adapters/mq/bus"
	"github.com/okian/absensi/internal/domain/dedupe"
	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/pkg/logger"
	"github.com/okian/absensi/pkg/metrics"
)

// Scanner turns scanned tokens into scan events.
type Scanner struct {
	backend ScanSubmitter
	events  bus.Publisher
	guard   dedupe.Guard
	clock   func() time.Time
	loc     *time.Location
	logger  logger.Logger
}

// NewScanner creates a scanner that submits tokens to backend and
// publishes successful scans on events.
func NewScanner(backend ScanSubmitter, events bus.Publisher, opts ...ScannerOption) *Scanner {
	sc := &Scanner{
		backend: backend,
		events:  events,
		clock:   time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.guard == nil {
		sc.guard = dedupe.NewCooldown()
	}
	if sc.logger == nil {
		sc.logger = logger.Get().Named("scanner")
	}
	return sc
}

// Submit sends token to the backend. When the backend attributes the scan
// to a student a ScanEvent is published before Submit returns. A result
// with Success false is not an error; it carries the backend's message.
func (sc *Scanner) Submit(ctx context.Context, token string) (model.ScanResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.RecordScanSubmitted("empty")
		return model.ScanResult{}, ErrEmptyToken
	}

	if err := sc.guard.Admit(ctx, token, sc.clock()); err != nil {
		switch {
		case errors.Is(err, dedupe.ErrDuplicate):
			metrics.RecordScanSubmitted("duplicate")
		default:
			metrics.RecordScanSubmitted("cooldown")
		}
		return model.ScanResult{}, err
	}

	res, err := sc.backend.Scan(ctx, token)
	if err != nil {
		sc.guard.Release(ctx, token)
		metrics.RecordScanSubmitted("error")
		metrics.RecordErrorByComponent("scanner", "backend")
		sc.logger.Warn(ctx, "scan submission failed", logger.Error(err))
		return model.ScanResult{}, fmt.Errorf("submit scan: %w", err)
	}

	if !res.Success || res.Student == nil {
		metrics.RecordScanSubmitted("rejected")
		sc.logger.Info(ctx, "scan rejected", logger.String("message", res.Message))
		return res, nil
	}

	ev := model.ScanEvent{
		ID:          uuid.NewString(),
		StudentID:   res.Student.ID,
		StudentNIS:  res.Student.NIS,
		StudentName: res.Student.Name,
		ScannedAt:   sc.clock().In(sc.loc),
		Token:       token,
	}
	metrics.RecordScanSubmitted("accepted")
	sc.logger.Info(ctx, "scan accepted",
		logger.String("event_id", ev.ID),
		logger.Int64("student_id", ev.StudentID),
		logger.Bool("already_scanned", res.AlreadyScanned),
		logger.Time("scanned_at", ev.ScannedAt),
	)

	sc.events.Publish(ev)
	metrics.RecordScanPublished()
	return res, nil
}
