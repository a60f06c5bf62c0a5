package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/absensi/internal/adapters/http/api"
	"github.com/okian/absensi/internal/app"
	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/internal/domain/status"
	. "github.com/smartystreets/goconvey/convey"
)

// busySession answers every command with err.
type busySession struct {
	err     error
	outcome app.SaveOutcome
}

func (b busySession) LoadClasses(context.Context) ([]string, error) { return nil, b.err }
func (b busySession) Select(context.Context, app.Selection) (app.View, error) {
	return app.View{}, b.err
}
func (b busySession) View(context.Context) (app.View, error) { return app.View{}, b.err }
func (b busySession) SetStatus(context.Context, int64, status.Code) (app.RowView, error) {
	return app.RowView{}, b.err
}
func (b busySession) Diff(context.Context) ([]model.UpdateRecord, error) { return nil, b.err }
func (b busySession) Save(context.Context) (app.SaveOutcome, error)     { return b.outcome, b.err }
func (b busySession) RefreshThreshold(context.Context) (status.Threshold, error) {
	return status.DefaultThreshold, b.err
}
func (b busySession) Stats(context.Context) app.Stats { return app.Stats{} }

type nopScanner struct{}

func (nopScanner) Submit(context.Context, string) (model.ScanResult, error) {
	return model.ScanResult{}, nil
}

func serve(s api.Attendance, method, path string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	api.NewServer(s, nopScanner{}).Register(context.Background(), mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))
	return w
}

func TestSessionErrorsOverHTTP(t *testing.T) {
	Convey("Given a session that is mid-save", t, func() {
		s := busySession{err: app.ErrSaveInProgress}

		Convey("Then a second save answers 409", func() {
			w := serve(s, http.MethodPost, "/attendance/save")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(w.Body.String(), ShouldContainSubstring, "save_in_progress")
		})
	})

	Convey("Given a save whose reload failed", t, func() {
		s := busySession{
			err:     app.ErrResync,
			outcome: app.SaveOutcome{Sent: 2, Updated: 1, Created: 1, Total: 2},
		}

		Convey("Then the outcome is returned with a warning", func() {
			w := serve(s, http.MethodPost, "/attendance/save")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"warning"`)
			So(w.Body.String(), ShouldContainSubstring, `"sent":2`)
		})
	})

	Convey("Given a stopped session", t, func() {
		w := serve(busySession{err: app.ErrStopped}, http.MethodGet, "/attendance")
		So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
	})

	Convey("Given an unreachable backend", t, func() {
		w := serve(busySession{err: errors.New("dial tcp: connection refused")}, http.MethodGet, "/classes")
		So(w.Code, ShouldEqual, http.StatusBadGateway)
	})
}
