package app

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/reconcile"
	"github.com/okian/absensi/internal/domain/status"
	"github.com/okian/absensi/pkg/logger"
	"github.com/okian/absensi/pkg/metrics"
)

// LoadClasses fetches the class list. On failure the list becomes empty
// and the error is returned.
func (s *Session) LoadClasses(ctx context.Context) ([]string, error) {
	classes, fetchErr := s.backend.Classes(ctx)
	if fetchErr != nil {
		classes = nil
		metrics.RecordErrorByComponent("session", "classes_failed")
		s.logger.Warn(ctx, "loading classes failed", logger.Error(fetchErr))
	} else {
		classes = append([]string(nil), classes...)
		sort.Strings(classes)
	}

	if err := s.do(context.WithoutCancel(ctx), func(context.Context) { s.classes = classes }); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return []string{}, fmt.Errorf("load classes: %w", fetchErr)
	}
	return classes, nil
}

// Select switches the session to another date and class and loads its
// rows. The threshold and the rows are fetched concurrently; a threshold
// failure falls back to the default, a row failure leaves an empty sheet.
//
// If another Select starts before this one's response arrives, the
// response is discarded and ErrSuperseded is returned.
func (s *Session) Select(ctx context.Context, sel Selection) (View, error) {
	if err := sel.Validate(); err != nil {
		return View{}, err
	}

	var (
		gen      uint64
		rejected error
	)
	err := s.do(ctx, func(context.Context) {
		if s.saving {
			rejected = ErrSaveInProgress
			return
		}
		s.generation++
		gen = s.generation
		s.selection = sel
		s.loading = true
		s.engine.Reset()
		s.recordRows()
	})
	if err != nil {
		return View{}, err
	}
	if rejected != nil {
		return View{}, rejected
	}

	th, recs, fetchErr := s.fetchSheet(ctx, sel)

	var (
		view  View
		stale bool
	)
	err = s.do(context.WithoutCancel(ctx), func(context.Context) {
		if gen != s.generation {
			stale = true
			return
		}
		s.loading = false
		if fetchErr != nil {
			s.threshold = s.defaultThreshold
			s.engine.Reset()
		} else {
			s.threshold = th
			s.engine.Load(reconcile.FromServerAll(recs, th, s.loc))
		}
		s.recordRows()
		view = s.view()
	})
	if err != nil {
		return View{}, err
	}

	switch {
	case stale:
		s.stats.loadsStale.Add(1)
		metrics.RecordLoad("stale")
		s.logger.Info(ctx, "discarded stale attendance response",
			logger.String("date", sel.Date),
			logger.String("class", sel.Class),
			logger.Int64("generation", int64(gen)),
		)
		return View{}, ErrSuperseded
	case fetchErr != nil:
		s.stats.loadsFailed.Add(1)
		metrics.RecordLoad("failed")
		metrics.RecordErrorByComponent("session", "load_failed")
		s.logger.Warn(ctx, "loading attendance failed",
			logger.String("date", sel.Date),
			logger.String("class", sel.Class),
			logger.Error(fetchErr),
		)
		return view, fmt.Errorf("load attendance: %w", fetchErr)
	}

	s.stats.loadsOK.Add(1)
	metrics.RecordLoad("ok")
	s.logger.Info(ctx, "attendance loaded",
		logger.String("date", sel.Date),
		logger.String("class", sel.Class),
		logger.Int("rows", len(view.Rows)),
		logger.String("threshold", view.Threshold),
	)
	return view, nil
}

// fetchSheet reads the threshold and the rows of sel in parallel.
func (s *Session) fetchSheet(ctx context.Context, sel Selection) (status.Threshold, []model.StudentStatus, error) {
	var (
		th   status.Threshold
		recs []model.StudentStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		th = s.fetchThreshold(gctx, sel.Class)
		return nil
	})
	g.Go(func() error {
		var err error
		recs, err = s.backend.ClassAttendance(gctx, sel.Date, sel.Class)
		return err
	})
	if err := g.Wait(); err != nil {
		return s.defaultThreshold, nil, err
	}
	return th, recs, nil
}

// fetchThreshold never fails; problems are logged and the default is used.
func (s *Session) fetchThreshold(ctx context.Context, class string) status.Threshold {
	th, err := s.readThreshold(ctx, class)
	if err != nil {
		s.logger.Warn(ctx, "using default late threshold",
			logger.String("class", class),
			logger.String("threshold", s.defaultThreshold.String()),
			logger.Error(err),
		)
		return s.defaultThreshold
	}
	return th
}

func (s *Session) readThreshold(ctx context.Context, class string) (status.Threshold, error) {
	sched, err := s.backend.ClassSchedule(ctx, class)
	if err != nil {
		return s.defaultThreshold, fmt.Errorf("class schedule %q: %w", class, err)
	}
	th, err := status.ParseThreshold(sched.LateThresholdTime)
	if err != nil {
		return s.defaultThreshold, fmt.Errorf("class schedule %q: %w", class, err)
	}
	return th, nil
}

// RefreshThreshold re-reads the selected class's threshold. Rows already on
// the sheet keep their status; the new value applies to later scans and
// the next reload. On failure the default threshold is installed and the
// error returned.
func (s *Session) RefreshThreshold(ctx context.Context) (status.Threshold, error) {
	var (
		sel Selection
		gen uint64
	)
	if err := s.do(ctx, func(context.Context) { sel, gen = s.selection, s.generation }); err != nil {
		return status.Threshold{}, err
	}
	if sel.IsZero() {
		return status.Threshold{}, ErrNoSelection
	}

	th, fetchErr := s.readThreshold(ctx, sel.Class)

	stale := false
	err := s.do(context.WithoutCancel(ctx), func(context.Context) {
		if gen != s.generation {
			stale = true
			return
		}
		s.threshold = th
	})
	if err != nil {
		return status.Threshold{}, err
	}
	if stale {
		return status.Threshold{}, ErrSuperseded
	}
	if fetchErr != nil {
		metrics.RecordErrorByComponent("session", "threshold_failed")
		s.logger.Warn(ctx, "refreshing threshold failed", logger.String("class", sel.Class), logger.Error(fetchErr))
		return th, fetchErr
	}

	s.logger.Info(ctx, "late threshold refreshed", logger.String("class", sel.Class), logger.String("threshold", th.String()))
	return th, nil
}
