package app

import (
	"context"
	"fmt"

	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/reconcile"
	"github.com/okian/absensi/pkg/logger"
	"github.com/okian/absensi/pkg/metrics"
)

// Save sends the diff between the live rows and the server snapshot in one
// batch update, then reloads the sheet so both snapshots match the server.
//
// An empty diff is reported as SaveOutcome.NoChanges without any network
// call. A failed update keeps every local edit for a retry. If the update
// succeeds but the reload fails, the sheet is emptied and the outcome is
// returned together with an error wrapping ErrResync.
func (s *Session) Save(ctx context.Context) (SaveOutcome, error) {
	var (
		req      model.BatchUpdate
		gen      uint64
		rejected error
	)
	err := s.do(ctx, func(context.Context) {
		switch {
		case s.saving:
			rejected = ErrSaveInProgress
			return
		case s.loading:
			rejected = ErrLoadInProgress
			return
		case s.selection.IsZero():
			rejected = ErrNoSelection
			return
		}
		recs := s.engine.Records()
		if len(recs) == 0 {
			return
		}
		s.saving = true
		gen = s.generation
		req = model.BatchUpdate{Date: s.selection.Date, ClassName: s.selection.Class, Records: recs}
	})
	if err != nil {
		return SaveOutcome{}, err
	}
	if rejected != nil {
		return SaveOutcome{}, rejected
	}
	if len(req.Records) == 0 {
		s.stats.savesNoop.Add(1)
		metrics.RecordSave("no_changes", 0)
		return SaveOutcome{NoChanges: true, Message: "no changes to save"}, nil
	}

	res, saveErr := s.backend.BatchUpdate(ctx, req)
	if saveErr != nil {
		if err := s.do(context.WithoutCancel(ctx), func(context.Context) { s.saving = false }); err != nil {
			return SaveOutcome{}, err
		}
		s.stats.saveFailures.Add(1)
		metrics.RecordSave("failed", len(req.Records))
		metrics.RecordErrorByComponent("session", "save_failed")
		s.logger.Error(ctx, "batch save failed",
			logger.String("date", req.Date),
			logger.String("class", req.ClassName),
			logger.Int("records", len(req.Records)),
			logger.Error(saveErr),
		)
		return SaveOutcome{}, fmt.Errorf("save attendance: %w", saveErr)
	}

	outcome := SaveOutcome{
		Sent:    len(req.Records),
		Updated: res.Updated,
		Created: res.Created,
		Total:   res.Total,
		Message: res.Message,
	}
	s.stats.saves.Add(1)
	metrics.RecordSave("saved", len(req.Records))
	s.logger.Info(ctx, "batch save done",
		logger.String("date", req.Date),
		logger.String("class", req.ClassName),
		logger.Int("sent", outcome.Sent),
		logger.Int("updated", outcome.Updated),
		logger.Int("created", outcome.Created),
	)

	recs, reloadErr := s.backend.ClassAttendance(ctx, req.Date, req.ClassName)
	err = s.do(context.WithoutCancel(ctx), func(context.Context) {
		s.saving = false
		if gen != s.generation {
			return
		}
		if reloadErr != nil {
			s.engine.Reset()
		} else {
			s.engine.Load(reconcile.FromServerAll(recs, s.threshold, s.loc))
		}
		s.recordRows()
	})
	if err != nil {
		return outcome, err
	}
	if reloadErr != nil {
		s.stats.resyncFailures.Add(1)
		metrics.RecordErrorByComponent("session", "resync_failed")
		s.logger.Warn(ctx, "reload after save failed", logger.Error(reloadErr))
		return outcome, fmt.Errorf("%w: %w", ErrResync, reloadErr)
	}
	return outcome, nil
}
