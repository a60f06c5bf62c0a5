package bus_test

import (
	"testing"

	"github.com/okian/absensi/internal/adapters/mq/bus"
	"github.com/okian/absensi/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBus(t *testing.T) {
	Convey("Given a fresh bus", t, func() {
		b := bus.New()
		ev := model.ScanEvent{StudentID: 7, Token: "tok"}

		Convey("When publishing with no listeners", func() {
			So(func() { b.Publish(ev) }, ShouldNotPanic)
			So(b.Len(), ShouldEqual, 0)
		})

		Convey("When several listeners subscribe", func() {
			var calls []string
			b.Subscribe(func(model.ScanEvent) { calls = append(calls, "first") })
			b.Subscribe(func(model.ScanEvent) { calls = append(calls, "second") })
			b.Subscribe(func(model.ScanEvent) { calls = append(calls, "third") })

			b.Publish(ev)

			Convey("Then they are called synchronously in subscription order", func() {
				So(calls, ShouldResemble, []string{"first", "second", "third"})
			})
		})

		Convey("When a listener unsubscribes", func() {
			var a, c int
			b.Subscribe(func(model.ScanEvent) { a++ })
			unsub := b.Subscribe(func(model.ScanEvent) { c++ })
			So(b.Len(), ShouldEqual, 2)

			unsub()
			b.Publish(ev)

			Convey("Then only that listener stops receiving", func() {
				So(a, ShouldEqual, 1)
				So(c, ShouldEqual, 0)
				So(b.Len(), ShouldEqual, 1)
			})

			Convey("And calling unsubscribe again is harmless", func() {
				So(func() { unsub() }, ShouldNotPanic)
				So(b.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the same function is subscribed twice", func() {
			n := 0
			fn := func(model.ScanEvent) { n++ }
			first := b.Subscribe(fn)
			b.Subscribe(fn)

			first()
			b.Publish(ev)

			Convey("Then removing one registration leaves the other", func() {
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When a listener subscribes after a publish", func() {
			b.Publish(ev)
			got := 0
			b.Subscribe(func(model.ScanEvent) { got++ })

			Convey("Then it never sees the earlier event", func() {
				So(got, ShouldEqual, 0)
			})
		})

		Convey("When a listener unsubscribes during delivery", func() {
			var order []int
			var unsub func()
			unsub = b.Subscribe(func(model.ScanEvent) { order = append(order, 1); unsub() })
			b.Subscribe(func(model.ScanEvent) { order = append(order, 2) })

			b.Publish(ev)
			b.Publish(ev)

			Convey("Then the current delivery completes and later ones skip it", func() {
				So(order, ShouldResemble, []int{1, 2, 2})
			})
		})

		Convey("When a listener panics", func() {
			b.Subscribe(func(model.ScanEvent) { panic("listener bug") })

			Convey("Then the bus does not swallow it", func() {
				So(func() { b.Publish(ev) }, ShouldPanic)
			})
		})

		Convey("When the event is delivered", func() {
			var got model.ScanEvent
			b.Subscribe(func(e model.ScanEvent) { got = e })
			b.Publish(ev)
			So(got, ShouldResemble, ev)
		})
	})
}
