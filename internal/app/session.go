// Package app holds the attendance editing session and the scanner that
// feeds it.
//
// A Session is an actor: its rows, threshold and flags are owned by a single
// event-loop goroutine. Public methods post tasks to the loop and wait for
// them; network calls happen on the caller's goroutine between two tasks, so
// a slow backend never blocks scans or other commands.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/absensi/internal/adapters/mq/bus"
	"github.com/okian/absensi/internal/adapters/mq/queue"
	"github.com/okian/absensi/internal/adapters/mq/worker"
	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/reconcile"
	"github.com/okian/absensi/internal/domain/status"
	"github.com/okian/absensi/pkg/logger"
	"github.com/okian/absensi/pkg/metrics"
)

// Default session configuration constants.
const (
	defaultInboxSize = 256
	stopTimeout      = 5 * time.Second
)

const (
	stateNew int32 = iota
	stateRunning
	stateStopped
)

// Session is one attendance editing session.
type Session struct {
	backend Backend
	events  bus.Subscriber

	// Configuration
	loc              *time.Location
	defaultThreshold status.Threshold
	inboxSize        int

	// Lifecycle
	lifecycle   sync.Mutex
	state       atomic.Int32
	inbox       *queue.InMemoryQueue
	loop        *worker.Loop
	cancel      context.CancelFunc
	unsubscribe func()

	// Loop-owned state. Touch only from inside a task.
	engine     *reconcile.Engine
	selection  Selection
	threshold  status.Threshold
	classes    []string
	generation uint64
	loading    bool
	saving     bool

	stats counters

	// Logging
	logger logger.Logger
}

// New constructs a session over backend that listens for scans on events.
func New(backend Backend, events bus.Subscriber, opts ...Option) *Session {
	s := &Session{
		backend:          backend,
		events:           events,
		loc:              time.Local,
		defaultThreshold: status.DefaultThreshold,
		inboxSize:        defaultInboxSize,
		engine:           reconcile.NewEngine(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("session")
	}
	s.threshold = s.defaultThreshold
	s.inbox = queue.NewInMemoryQueue(queue.WithCapacity(s.inboxSize))
	s.loop = worker.NewLoop(s.inbox, worker.WithName("session-loop"), worker.WithLogger(s.logger))

	return s
}

// Start runs the event loop and subscribes to scan events.
func (s *Session) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	switch s.state.Load() {
	case stateRunning:
		return nil
	case stateStopped:
		return ErrStopped
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.loop.Run(loopCtx)

	if s.events != nil {
		s.unsubscribe = s.events.Subscribe(s.onScan)
	}
	s.state.Store(stateRunning)
	metrics.UpdateSessionActive(true)

	s.logger.Info(ctx, "attendance session started",
		logger.Int("inbox_size", s.inboxSize),
		logger.String("default_threshold", s.defaultThreshold.String()),
		logger.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop unsubscribes from the bus, lets queued tasks finish and stops the
// loop. A stopped session cannot be restarted.
func (s *Session) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.state.Load() != stateRunning {
		s.state.Store(stateStopped)
		return nil
	}
	s.state.Store(stateStopped)

	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stopTimeout)
		defer cancel()
	}
	err := s.loop.Shutdown(ctx)
	s.cancel()
	metrics.UpdateSessionActive(false)

	s.logger.Info(ctx, "attendance session stopped")
	return err
}

// do runs fn on the loop and waits for it to finish. ctx bounds only the
// wait for an inbox slot: a queued fn always runs and do waits for it.
func (s *Session) do(ctx context.Context, fn func(ctx context.Context)) error {
	switch s.state.Load() {
	case stateNew:
		return ErrNotStarted
	case stateStopped:
		return ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	completed := false
	err := s.inbox.Enqueue(ctx, func(ctx context.Context) {
		defer close(done)
		fn(ctx)
		completed = true
	})
	if errors.Is(err, queue.ErrStopped) {
		return ErrStopped
	}
	if err != nil {
		return err
	}

	select {
	case <-done:
	case <-s.loop.Done():
		select {
		case <-done:
		default:
			return ErrStopped
		}
	}
	if !completed {
		return ErrTaskFailed
	}
	return nil
}

// onScan is the bus listener. It runs on the publisher's goroutine and only
// hands the event to the loop.
func (s *Session) onScan(ev model.ScanEvent) {
	ctx := context.Background()
	err := s.inbox.Enqueue(ctx, func(ctx context.Context) { s.applyScan(ctx, ev) })
	if err != nil {
		metrics.RecordScanIgnored("stopped")
		s.logger.Warn(ctx, "scan event dropped", logger.String("event_id", ev.ID), logger.Error(err))
	}
}

func (s *Session) applyScan(ctx context.Context, ev model.ScanEvent) {
	outcome := s.engine.ApplyScan(ev, s.threshold)
	switch outcome {
	case reconcile.ScanApplied:
		s.stats.scansApplied.Add(1)
		metrics.RecordScanApplied()
		s.recordRows()
	case reconcile.ScanIgnoredManual:
		s.stats.scansIgnoredManual.Add(1)
		metrics.RecordScanIgnored(outcome.String())
	default:
		s.stats.scansIgnoredNoRow.Add(1)
		metrics.RecordScanIgnored(outcome.String())
	}
	s.logger.Debug(ctx, "scan event handled",
		logger.String("event_id", ev.ID),
		logger.Int64("student_id", ev.StudentID),
		logger.String("outcome", outcome.String()),
	)
}

// SetStatus manually assigns c to a student's row. The row becomes immune
// to scans until the next reload.
func (s *Session) SetStatus(ctx context.Context, studentID int64, c status.Code) (RowView, error) {
	if !c.IsSet() {
		return RowView{}, ErrInvalidStatus
	}

	var (
		view  RowView
		found bool
	)
	err := s.do(ctx, func(context.Context) {
		if !s.engine.ApplyManual(studentID, c) {
			return
		}
		found = true
		row, _ := s.engine.Current().Get(studentID)
		orig, ok := s.engine.Original().Get(studentID)
		view = rowView(row, !ok || orig.Status != row.Status)
		s.recordRows()
	})
	if err != nil {
		return RowView{}, err
	}
	if !found {
		return RowView{}, ErrUnknownStudent
	}

	s.stats.manualEdits.Add(1)
	metrics.RecordManualEdit()
	return view, nil
}

// View returns the current attendance sheet.
func (s *Session) View(ctx context.Context) (View, error) {
	var v View
	if err := s.do(ctx, func(context.Context) { v = s.view() }); err != nil {
		return View{}, err
	}
	return v, nil
}

// Diff returns the wire records a save would send now.
func (s *Session) Diff(ctx context.Context) ([]model.UpdateRecord, error) {
	var recs []model.UpdateRecord
	if err := s.do(ctx, func(context.Context) { recs = s.engine.Records() }); err != nil {
		return nil, err
	}
	return recs, nil
}

// view builds a View. Must run on the loop.
func (s *Session) view() View {
	diff := s.engine.Diff()
	changed := make(map[int64]struct{}, len(diff))
	for _, r := range diff {
		changed[r.ID()] = struct{}{}
	}

	rows := s.engine.Current().Rows()
	out := make([]RowView, 0, len(rows))
	for _, r := range rows {
		_, ok := changed[r.ID()]
		out = append(out, rowView(r, ok))
	}

	classes := make([]string, len(s.classes))
	copy(classes, s.classes)

	return View{
		Selection:  s.selection,
		Threshold:  s.threshold.String(),
		Classes:    classes,
		Rows:       out,
		Summary:    s.engine.Summary(),
		Pending:    len(diff),
		HasChanges: len(diff) > 0,
		Loading:    s.loading,
		Saving:     s.saving,
		Generation: s.generation,
	}
}

// recordRows refreshes the row gauges. Must run on the loop.
func (s *Session) recordRows() {
	metrics.UpdateRows(s.engine.Current().Len(), len(s.engine.Diff()))
}
