package app

import (
	"context"
	"sync/atomic"
)

type counters struct {
	scansApplied       atomic.Int64
	scansIgnoredManual atomic.Int64
	scansIgnoredNoRow  atomic.Int64
	manualEdits        atomic.Int64
	loadsOK            atomic.Int64
	loadsFailed        atomic.Int64
	loadsStale         atomic.Int64
	saves              atomic.Int64
	savesNoop          atomic.Int64
	saveFailures       atomic.Int64
	resyncFailures     atomic.Int64
}

// Stats is a point-in-time copy of the session counters.
type Stats struct {
	Running            bool   `json:"running"`
	ScansApplied       int64  `json:"scans_applied"`
	ScansIgnoredManual int64  `json:"scans_ignored_manual"`
	ScansIgnoredNoRow  int64  `json:"scans_ignored_no_row"`
	ManualEdits        int64  `json:"manual_edits"`
	LoadsOK            int64  `json:"loads_ok"`
	LoadsFailed        int64  `json:"loads_failed"`
	LoadsStale         int64  `json:"loads_stale"`
	Saves              int64  `json:"saves"`
	SavesNoop          int64  `json:"saves_noop"`
	SaveFailures       int64  `json:"save_failures"`
	ResyncFailures     int64  `json:"resync_failures"`
	InboxLen           int    `json:"inbox_len"`
	Rows               int    `json:"rows"`
	Pending            int    `json:"pending_changes"`
	Generation         uint64 `json:"generation"`
}

// Stats returns the session counters. Row figures are read on the loop and
// left at zero when it is not running.
func (s *Session) Stats(ctx context.Context) Stats {
	st := Stats{
		Running:            s.state.Load() == stateRunning,
		ScansApplied:       s.stats.scansApplied.Load(),
		ScansIgnoredManual: s.stats.scansIgnoredManual.Load(),
		ScansIgnoredNoRow:  s.stats.scansIgnoredNoRow.Load(),
		ManualEdits:        s.stats.manualEdits.Load(),
		LoadsOK:            s.stats.loadsOK.Load(),
		LoadsFailed:        s.stats.loadsFailed.Load(),
		LoadsStale:         s.stats.loadsStale.Load(),
		Saves:              s.stats.saves.Load(),
		SavesNoop:          s.stats.savesNoop.Load(),
		SaveFailures:       s.stats.saveFailures.Load(),
		ResyncFailures:     s.stats.resyncFailures.Load(),
		InboxLen:           s.inbox.Len(),
	}
	var (
		rows, pending int
		gen           uint64
	)
	err := s.do(ctx, func(context.Context) {
		rows = s.engine.Current().Len()
		pending = len(s.engine.Diff())
		gen = s.generation
	})
	if err == nil {
		st.Rows, st.Pending, st.Generation = rows, pending, gen
	}
	return st
}
