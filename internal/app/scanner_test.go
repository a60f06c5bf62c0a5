package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/okian/absensi/internal/adapters/mq/bus"
	"github.com/okian/absensi/internal/app"
	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScanner(t *testing.T) {
	Convey("Given a scanner with a controllable clock", t, func() {
		ctx := context.Background()
		backend := newFakeBackend()
		backend.scanResults["tok-andi"] = model.ScanResult{
			Success: true,
			Message: "Absensi berhasil",
			Student: &model.Student{ID: 1, NIS: "1001", Name: "Andi", ClassName: "4A"},
		}
		backend.scanResults["tok-budi"] = model.ScanResult{
			Success: true,
			Student: &model.Student{ID: 2, NIS: "1002", Name: "Budi", ClassName: "4A"},
		}

		now := time.Date(2024, 7, 15, 0, 10, 0, 0, time.UTC)
		events := bus.New()
		var got []model.ScanEvent
		events.Subscribe(func(ev model.ScanEvent) { got = append(got, ev) })

		sc := app.NewScanner(backend, events,
			app.WithScannerLogger(logger.Nop()),
			app.WithClock(func() time.Time { return now }),
			app.WithScannerLocation(wib),
		)

		Convey("When the token is blank", func() {
			_, err := sc.Submit(ctx, "   ")
			So(errors.Is(err, app.ErrEmptyToken), ShouldBeTrue)
			So(backend.scans(), ShouldEqual, 0)
		})

		Convey("When the backend accepts the token", func() {
			res, err := sc.Submit(ctx, " tok-andi ")
			So(err, ShouldBeNil)

			Convey("Then one event is published in the school zone", func() {
				So(res.Success, ShouldBeTrue)
				So(len(got), ShouldEqual, 1)
				ev := got[0]
				So(ev.StudentID, ShouldEqual, int64(1))
				So(ev.StudentName, ShouldEqual, "Andi")
				So(ev.Token, ShouldEqual, "tok-andi")
				So(ev.ScannedAt.Equal(now), ShouldBeTrue)
				So(ev.ScannedAt.Location(), ShouldEqual, wib)
				_, perr := uuid.Parse(ev.ID)
				So(perr, ShouldBeNil)
			})
		})

		Convey("When the backend rejects the token", func() {
			res, err := sc.Submit(ctx, "tok-unknown")

			Convey("Then the message is returned and nothing is published", func() {
				So(err, ShouldBeNil)
				So(res.Success, ShouldBeFalse)
				So(res.Message, ShouldEqual, "invalid token")
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When two scans arrive inside the cooldown", func() {
			_, err := sc.Submit(ctx, "tok-andi")
			So(err, ShouldBeNil)
			now = now.Add(500 * time.Millisecond)
			_, err = sc.Submit(ctx, "tok-budi")

			Convey("Then the second is refused without a backend call", func() {
				So(errors.Is(err, app.ErrCooldown), ShouldBeTrue)
				So(backend.scans(), ShouldEqual, 1)
				So(len(got), ShouldEqual, 1)
			})

			Convey("Then it is accepted once the cooldown has passed", func() {
				now = now.Add(2 * time.Second)
				_, err := sc.Submit(ctx, "tok-budi")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
			})
		})

		Convey("When the same token is scanned again shortly after", func() {
			_, err := sc.Submit(ctx, "tok-andi")
			So(err, ShouldBeNil)
			now = now.Add(3 * time.Second)
			_, err = sc.Submit(ctx, "tok-andi")
			So(errors.Is(err, app.ErrDuplicateScan), ShouldBeTrue)
		})

		Convey("When the backend call fails", func() {
			backend.scanErr = errors.New("connection refused")
			_, err := sc.Submit(ctx, "tok-andi")
			So(err, ShouldNotBeNil)

			Convey("Then the token can be retried at once", func() {
				backend.scanErr = nil
				_, err := sc.Submit(ctx, "tok-andi")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
			})
		})
	})
}

func TestScannerFeedsSession(t *testing.T) {
	Convey("Given a scanner and a session sharing a bus", t, func() {
		ctx := context.Background()
		backend := newFakeBackend()
		backend.scanResults["tok-andi"] = model.ScanResult{
			Success: true,
			Student: &model.Student{ID: 1, NIS: "1001", Name: "Andi", ClassName: "4A"},
		}
		events := bus.New()
		s := newSession(backend, events)
		So(s.Start(ctx), ShouldBeNil)
		defer func() { _ = s.Stop(ctx) }()
		_, err := s.Select(ctx, app.Selection{Date: testDate, Class: testClass})
		So(err, ShouldBeNil)

		sc := app.NewScanner(backend, events,
			app.WithScannerLogger(logger.Nop()),
			app.WithClock(func() time.Time { return at(7, 31, 0) }),
			app.WithScannerLocation(wib),
		)

		Convey("When a late student scans in", func() {
			_, err := sc.Submit(ctx, "tok-andi")
			So(err, ShouldBeNil)
			v, err := s.View(ctx)
			So(err, ShouldBeNil)

			Convey("Then the row turns Late and becomes a pending change", func() {
				r := rowByID(v, 1)
				So(r.Status, ShouldEqual, "Late")
				So(r.Changed, ShouldBeTrue)
				So(v.Pending, ShouldEqual, 1)
			})
		})
	})
}
