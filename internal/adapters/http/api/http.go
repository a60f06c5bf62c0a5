// Package api exposes the attendance session over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/absensi/internal/app"
	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/status"
	"github.com/okian/absensi/pkg/logger"
)

// Attendance is the session surface the handlers drive.
type Attendance interface {
	LoadClasses(ctx context.Context) ([]string, error)
	Select(ctx context.Context, sel app.Selection) (app.View, error)
	View(ctx context.Context) (app.View, error)
	SetStatus(ctx context.Context, studentID int64, c status.Code) (app.RowView, error)
	Diff(ctx context.Context) ([]model.UpdateRecord, error)
	Save(ctx context.Context) (app.SaveOutcome, error)
	RefreshThreshold(ctx context.Context) (status.Threshold, error)
	Stats(ctx context.Context) app.Stats
}

// Scanner submits scanned card tokens.
type Scanner interface {
	Submit(ctx context.Context, token string) (model.ScanResult, error)
}

// Server wires HTTP routes for the attendance API.
type Server struct {
	session Attendance
	scanner Scanner
	logger  logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates an API server over a session and a scanner.
func NewServer(session Attendance, scanner Scanner, opts ...Option) *Server {
	s := &Server{session: session, scanner: scanner, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", s.route("stats", s.handleStats))
	mux.HandleFunc("GET /classes", s.route("classes", s.handleClasses))
	mux.HandleFunc("POST /selection", s.route("selection", s.handleSelect))
	mux.HandleFunc("GET /attendance", s.route("attendance", s.handleView))
	mux.HandleFunc("GET /attendance/diff", s.route("attendance_diff", s.handleDiff))
	mux.HandleFunc("PUT /attendance/{student_id}", s.route("attendance_status", s.handleSetStatus))
	mux.HandleFunc("POST /attendance/save", s.route("attendance_save", s.handleSave))
	mux.HandleFunc("POST /threshold/refresh", s.route("threshold_refresh", s.handleRefreshThreshold))
	mux.HandleFunc("POST /scan", s.route("scan", s.handleScan))
}

func (s *Server) route(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return RequestIDMiddleware(MetricsMiddleware(h, endpoint))
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, st int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(st)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, st int, code string, err error) {
	msg := http.StatusText(st)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var fe fieldErrors
	if errors.As(err, &fe) {
		resp.Fields = fe
	}
	writeJSON(w, st, resp)
}

// fail writes err with the status and code classify picks and logs
// server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	st, code := classify(err)
	if st >= statusInternalError {
		s.logger.Warn(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	}
	writeError(w, st, code, err)
}

// classify maps session, scanner and transport errors to HTTP statuses.
// Anything unrecognised came from the attendance backend.
func classify(err error) (int, string) {
	var fe fieldErrors
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrInvalidStudentID),
		errors.Is(err, app.ErrInvalidSelection),
		errors.Is(err, app.ErrInvalidStatus),
		errors.Is(err, app.ErrEmptyToken),
		errors.Is(err, status.ErrUnknownStatus):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, app.ErrUnknownStudent):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, app.ErrSaveInProgress):
		return http.StatusConflict, "save_in_progress"
	case errors.Is(err, app.ErrLoadInProgress):
		return http.StatusConflict, "load_in_progress"
	case errors.Is(err, app.ErrNoSelection):
		return http.StatusConflict, "no_selection"
	case errors.Is(err, app.ErrSuperseded):
		return http.StatusConflict, "superseded"
	case errors.Is(err, app.ErrCooldown):
		return http.StatusConflict, "cooldown"
	case errors.Is(err, app.ErrDuplicateScan):
		return http.StatusConflict, "duplicate_scan"
	case errors.Is(err, app.ErrNotStarted), errors.Is(err, app.ErrStopped):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, app.ErrTaskFailed):
		return http.StatusInternalServerError, "internal_error"
	default:
		return http.StatusBadGateway, "backend_error"
	}
}
