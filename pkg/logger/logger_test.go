package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given logger initialization", t, func() {
		Convey("When using defaults", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("When the format is unknown", func() {
			So(Init(WithFormat("xml")), ShouldNotBeNil)
		})

		Convey("When the level is unknown", func() {
			So(Init(WithLevel("loud")), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithWriter(&buf), WithLevel("debug")), ShouldBeNil)
		defer func() { _ = Init() }()

		ctx := WithRequestID(context.Background(), "req-1")

		Convey("When logging with typed fields", func() {
			Named("session").Info(ctx, "rows loaded",
				Int("rows", 3),
				Int64("student_id", 42),
				Bool("manual", true),
				Time("at", time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)),
				Duration("took", time.Second),
				Error(errors.New("boom")),
			)

			var entry map[string]any
			So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)

			Convey("Then every field is present", func() {
				So(entry["msg"], ShouldEqual, "rows loaded")
				So(entry["logger"], ShouldEqual, "session")
				So(entry["rows"], ShouldEqual, float64(3))
				So(entry["student_id"], ShouldEqual, float64(42))
				So(entry["manual"], ShouldEqual, true)
				So(entry["error"], ShouldEqual, "boom")
				So(entry["request_id"], ShouldEqual, "req-1")
				So(entry["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters an entry", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then only the allowed entry is written", func() {
				out := buf.String()
				So(strings.Contains(out, "hidden"), ShouldBeFalse)
				So(out, ShouldContainSubstring, "shown")
			})
		})
	})
}

func TestLevels(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, name := range []string{"debug", "INFO", "", "warn", "warning", " error "} {
			So(SetLevelString(name), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop()
		So(func() {
			l.Error(context.Background(), "dropped", String("k", "v"))
			l.Named("x").Info(context.Background(), "dropped")
		}, ShouldNotPanic)
		So(RequestID(context.Background()), ShouldEqual, "")
	})
}
