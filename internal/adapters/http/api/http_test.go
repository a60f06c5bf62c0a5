package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/absensi/internal/adapters/http/api"
	"github.com/okian/absensi/internal/adapters/mq/bus"
	"github.com/okian/absensi/internal/adapters/repository"
	"github.com/okian/absensi/internal/app"
	"github.com/okian/absensi/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var wib = time.FixedZone("WIB", 7*3600)

type harness struct {
	mux     *http.ServeMux
	memory  *repository.Memory
	session *app.Session
}

func newHarness(now time.Time) *harness {
	clock := func() time.Time { return now }
	memory := repository.NewMemory(
		repository.WithClock(clock),
		repository.WithLocation(wib),
	)
	if err := repository.Seed(memory); err != nil {
		panic(err)
	}
	events := bus.New()
	session := app.New(memory, events,
		app.WithLogger(logger.Nop()),
		app.WithLocation(wib),
	)
	if err := session.Start(context.Background()); err != nil {
		panic(err)
	}
	scanner := app.NewScanner(memory, events,
		app.WithScannerLogger(logger.Nop()),
		app.WithClock(clock),
		app.WithScannerLocation(wib),
	)
	mux := http.NewServeMux()
	api.NewServer(session, scanner).Register(context.Background(), mux)
	return &harness{mux: mux, memory: memory, session: session}
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder, v any) {
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		panic(err)
	}
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func TestAttendanceAPI(t *testing.T) {
	Convey("Given the API over a seeded in-memory backend", t, func() {
		h := newHarness(time.Date(2024, 7, 15, 7, 45, 0, 0, wib))
		defer func() { _ = h.session.Stop(context.Background()) }()

		Convey("Health serves Prometheus metrics", func() {
			w := h.do(http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "absensi_attendance_")
		})

		Convey("Every response carries a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			h.mux.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")

			w = h.do(http.MethodGet, "/stats", "")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeBlank)
		})

		Convey("Classes come from the backend", func() {
			w := h.do(http.MethodGet, "/classes", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				Classes []string `json:"classes"`
			}
			decodeBody(w, &body)
			So(body.Classes, ShouldResemble, []string{"4A", "4B", "5A"})
		})

		Convey("A malformed selection is a validation error", func() {
			w := h.do(http.MethodPost, "/selection", `{"date":"15-07-2024"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			var body errorBody
			decodeBody(w, &body)
			So(body.Code, ShouldEqual, "validation_failed")
			So(body.Fields["date"], ShouldEqual, "datetime")
			So(body.Fields["class_name"], ShouldEqual, "required")
		})

		Convey("Unknown fields are rejected", func() {
			w := h.do(http.MethodPost, "/selection", `{"date":"2024-07-15","class_name":"4A","extra":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Editing before a selection finds no student", func() {
			w := h.do(http.MethodPut, "/attendance/1", `{"status":"S"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Saving before a selection conflicts", func() {
			w := h.do(http.MethodPost, "/attendance/save", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			var body errorBody
			decodeBody(w, &body)
			So(body.Code, ShouldEqual, "no_selection")
		})

		Convey("When a class is selected", func() {
			w := h.do(http.MethodPost, "/selection", `{"date":"2024-07-15","class_name":"4A"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var v app.View
			decodeBody(w, &v)
			So(len(v.Rows), ShouldEqual, 6)
			So(v.Threshold, ShouldEqual, "07:30")
			So(v.HasChanges, ShouldBeFalse)

			Convey("A manual status is accepted by letter", func() {
				w := h.do(http.MethodPut, "/attendance/3", `{"status":"S"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				var row app.RowView
				decodeBody(w, &row)
				So(row.Status, ShouldEqual, "Sick")
				So(row.Letter, ShouldEqual, "S")
				So(row.Manual, ShouldBeTrue)
				So(row.Changed, ShouldBeTrue)

				w = h.do(http.MethodGet, "/attendance/diff", "")
				var diff struct {
					Count int `json:"count"`
				}
				decodeBody(w, &diff)
				So(diff.Count, ShouldEqual, 1)
			})

			Convey("Bad edits are rejected", func() {
				So(h.do(http.MethodPut, "/attendance/abc", `{"status":"S"}`).Code, ShouldEqual, http.StatusBadRequest)
				So(h.do(http.MethodPut, "/attendance/3", `{"status":"X"}`).Code, ShouldEqual, http.StatusBadRequest)
				So(h.do(http.MethodPut, "/attendance/3", `{}`).Code, ShouldEqual, http.StatusBadRequest)
				So(h.do(http.MethodPut, "/attendance/999", `{"status":"S"}`).Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("A late scan lands on the sheet", func() {
				token, err := h.memory.IssueToken(1)
				So(err, ShouldBeNil)
				w := h.do(http.MethodPost, "/scan", `{"token":"`+token+`"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				var res struct {
					Success bool `json:"success"`
				}
				decodeBody(w, &res)
				So(res.Success, ShouldBeTrue)

				w = h.do(http.MethodGet, "/attendance", "")
				var v app.View
				decodeBody(w, &v)
				So(v.Rows[0].StudentID, ShouldEqual, int64(1))
				So(v.Rows[0].Status, ShouldEqual, "Late")
				So(v.Rows[0].Manual, ShouldBeFalse)
				So(v.Pending, ShouldEqual, 1)

				Convey("A repeat inside the cooldown conflicts", func() {
					w := h.do(http.MethodPost, "/scan", `{"token":"`+token+`"}`)
					So(w.Code, ShouldEqual, http.StatusConflict)
					var body errorBody
					decodeBody(w, &body)
					So(body.Code, ShouldEqual, "cooldown")
				})

				Convey("Saving writes the scan and the edit", func() {
					So(h.do(http.MethodPut, "/attendance/3", `{"status":"Sick"}`).Code, ShouldEqual, http.StatusOK)

					w := h.do(http.MethodPost, "/attendance/save", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					var out app.SaveOutcome
					decodeBody(w, &out)
					So(out.NoChanges, ShouldBeFalse)
					So(out.Sent, ShouldEqual, 2)
					So(out.Updated, ShouldEqual, 1)
					So(out.Created, ShouldEqual, 1)

					w = h.do(http.MethodGet, "/attendance", "")
					var v app.View
					decodeBody(w, &v)
					So(v.HasChanges, ShouldBeFalse)
					So(v.Rows[0].Status, ShouldEqual, "Late")
					So(v.Rows[2].Status, ShouldEqual, "Sick")

					Convey("A second save has nothing to send", func() {
						w := h.do(http.MethodPost, "/attendance/save", "")
						So(w.Code, ShouldEqual, http.StatusOK)
						var out app.SaveOutcome
						decodeBody(w, &out)
						So(out.NoChanges, ShouldBeTrue)
					})
				})
			})

			Convey("A garbage token is an unsuccessful scan", func() {
				w := h.do(http.MethodPost, "/scan", `{"token":"garbage"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				var res struct {
					Success bool `json:"success"`
				}
				decodeBody(w, &res)
				So(res.Success, ShouldBeFalse)
			})

			Convey("The threshold can be refreshed", func() {
				So(h.memory.SetThreshold("4A", "08:00"), ShouldBeNil)
				w := h.do(http.MethodPost, "/threshold/refresh", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					LateThreshold string `json:"late_threshold"`
				}
				decodeBody(w, &body)
				So(body.LateThreshold, ShouldEqual, "08:00")
			})

			Convey("Stats reflect the sheet", func() {
				w := h.do(http.MethodGet, "/stats", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var st app.Stats
				decodeBody(w, &st)
				So(st.Running, ShouldBeTrue)
				So(st.Rows, ShouldEqual, 6)
				So(st.LoadsOK, ShouldEqual, int64(1))
			})
		})

		Convey("A blank scan body is a validation error", func() {
			w := h.do(http.MethodPost, "/scan", `{"token":""}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Wrong methods are not routed", func() {
			So(h.do(http.MethodDelete, "/attendance", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
