package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/absensi/internal/app"
	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/status"
	"github.com/okian/absensi/pkg/logger"
)

type classesResponse struct {
	Classes []string `json:"classes"`
}

type diffResponse struct {
	Count   int                  `json:"count"`
	Records []model.UpdateRecord `json:"records"`
}

type saveResponse struct {
	app.SaveOutcome
	Warning string `json:"warning,omitempty"`
}

type thresholdResponse struct {
	LateThreshold string `json:"late_threshold"`
}

// handleClasses handles GET /classes.
func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.session.LoadClasses(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classesResponse{Classes: classes})
}

// handleSelect handles POST /selection.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.session.Select(r.Context(), app.Selection{Date: req.Date, Class: req.ClassName})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleView handles GET /attendance.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, err := s.session.View(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleSetStatus handles PUT /attendance/{student_id}.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("student_id"), 10, 64)
	if err != nil || id <= 0 {
		s.fail(w, r, ErrInvalidStudentID)
		return
	}
	var req statusRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	code, err := status.Parse(req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	row, err := s.session.SetStatus(r.Context(), id, code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// handleDiff handles GET /attendance/diff.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	recs, err := s.session.Diff(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.UpdateRecord{}
	}
	writeJSON(w, http.StatusOK, diffResponse{Count: len(recs), Records: recs})
}

// handleSave handles POST /attendance/save. A save that reached the backend
// but could not reload the sheet still answers 200 with a warning.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	out, err := s.session.Save(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, saveResponse{SaveOutcome: out})
	case errors.Is(err, app.ErrResync):
		s.logger.Warn(r.Context(), "saved but reload failed", logger.Error(err))
		writeJSON(w, http.StatusOK, saveResponse{SaveOutcome: out, Warning: err.Error()})
	default:
		s.fail(w, r, err)
	}
}

// handleRefreshThreshold handles POST /threshold/refresh.
func (s *Server) handleRefreshThreshold(w http.ResponseWriter, r *http.Request) {
	th, err := s.session.RefreshThreshold(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thresholdResponse{LateThreshold: th.String()})
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Stats(r.Context()))
}
