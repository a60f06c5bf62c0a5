package status_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/absensi/internal/domain/status"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCodeTables(t *testing.T) {
	Convey("Given the fixed status table", t, func() {
		Convey("Then every code maps label and letter both ways", func() {
			want := map[string]string{
				"Present":    "H",
				"Late":       "T",
				"Sick":       "S",
				"Permission": "I",
				"Absent":     "A",
			}
			for label, letter := range want {
				c, ok := status.FromLabel(label)
				So(ok, ShouldBeTrue)
				So(c.Letter(), ShouldEqual, letter)
				So(c.Label(), ShouldEqual, label)

				byLetter, err := status.Parse(letter)
				So(err, ShouldBeNil)
				So(byLetter, ShouldEqual, c)
			}
		})

		Convey("Then unknown labels map to None", func() {
			c, ok := status.FromLabel("Holiday")
			So(ok, ShouldBeFalse)
			So(c, ShouldEqual, status.None)
			So(c.IsSet(), ShouldBeFalse)
			So(c.Label(), ShouldEqual, "")
		})

		Convey("Then Parse is case-insensitive and rejects garbage", func() {
			c, err := status.Parse(" late ")
			So(err, ShouldBeNil)
			So(c, ShouldEqual, status.Late)

			_, err = status.Parse("X")
			So(errors.Is(err, status.ErrUnknownStatus), ShouldBeTrue)
		})

		Convey("Then All lists five codes in H, T, S, I, A order", func() {
			letters := ""
			for _, c := range status.All {
				letters += c.Letter()
			}
			So(letters, ShouldEqual, "HTSIA")
		})
	})
}

func TestParseThreshold(t *testing.T) {
	Convey("Given threshold strings", t, func() {
		Convey("When the value is well formed", func() {
			th, err := status.ParseThreshold("07:30")
			So(err, ShouldBeNil)
			So(th, ShouldResemble, status.Threshold{Hour: 7, Minute: 30})
			So(th.String(), ShouldEqual, "07:30")
		})

		Convey("When the value is malformed", func() {
			for _, in := range []string{"", "0730", "24:00", "07:60", "aa:bb", "-1:10"} {
				_, err := status.ParseThreshold(in)
				So(errors.Is(err, status.ErrInvalidThreshold), ShouldBeTrue)
			}
		})

		Convey("When falling back on a bad value", func() {
			So(status.ParseThresholdOr("nope", status.DefaultThreshold), ShouldResemble, status.DefaultThreshold)
			So(status.ParseThresholdOr("08:05", status.DefaultThreshold), ShouldResemble, status.Threshold{Hour: 8, Minute: 5})
		})

		Convey("When round-tripping through text", func() {
			var th status.Threshold
			So(th.UnmarshalText([]byte("06:45")), ShouldBeNil)
			b, err := th.MarshalText()
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "06:45")
		})
	})
}

func TestDerive(t *testing.T) {
	Convey("Given a 07:30 threshold", t, func() {
		th := status.Threshold{Hour: 7, Minute: 30}
		loc := time.FixedZone("WIB", 7*60*60)
		day := func(h, m, s, ns int) time.Time { return time.Date(2025, 1, 6, h, m, s, ns, loc) }

		Convey("Then a scan exactly at the cut-off is Present", func() {
			So(status.Derive(day(7, 30, 0, 0), th), ShouldEqual, status.Present)
		})

		Convey("Then one second after the cut-off is Late", func() {
			So(status.Derive(day(7, 30, 1, 0), th), ShouldEqual, status.Late)
		})

		Convey("Then one nanosecond after the cut-off is Late", func() {
			So(status.Derive(day(7, 30, 0, 1), th), ShouldEqual, status.Late)
		})

		Convey("Then any earlier scan is Present", func() {
			So(status.Derive(day(0, 0, 0, 0), th), ShouldEqual, status.Present)
			So(status.Derive(day(7, 29, 59, 999), th), ShouldEqual, status.Present)
		})

		Convey("Then the cut-off follows the scan's own calendar date and zone", func() {
			utc := time.Date(2025, 1, 6, 0, 31, 0, 0, time.UTC) // 07:31 WIB
			So(status.Derive(utc, th), ShouldEqual, status.Present)
			So(status.Derive(utc.In(loc), th), ShouldEqual, status.Late)
		})
	})
}
