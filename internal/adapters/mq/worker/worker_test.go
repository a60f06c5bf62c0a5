package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/absensi/internal/adapters/mq/queue"
	"github.com/okian/absensi/internal/adapters/mq/worker"
	"github.com/okian/absensi/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestLoop(t *testing.T) {
	convey.Convey("Given a loop over an inbox", t, func() {
		_ = logger.Init()

		inbox := queue.NewInMemoryQueue(queue.WithCapacity(16))
		loop := worker.NewLoop(inbox, worker.WithName("test-loop"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go loop.Run(ctx)

		convey.Convey("When tasks are enqueued from one producer", func() {
			var order []int
			finished := make(chan struct{})
			for i := 1; i <= 5; i++ {
				n := i
				convey.So(inbox.Enqueue(ctx, func(context.Context) { order = append(order, n) }), convey.ShouldBeNil)
			}
			convey.So(inbox.Enqueue(ctx, func(context.Context) { close(finished) }), convey.ShouldBeNil)
			<-finished

			convey.Convey("Then they run in order", func() {
				convey.So(order, convey.ShouldResemble, []int{1, 2, 3, 4, 5})
			})
		})

		convey.Convey("When tasks are enqueued concurrently", func() {
			var running, overlap int32
			const n = 50
			done := make(chan struct{}, n)
			for i := 0; i < n; i++ {
				go func() {
					_ = inbox.Enqueue(ctx, func(context.Context) {
						if atomic.AddInt32(&running, 1) > 1 {
							atomic.StoreInt32(&overlap, 1)
						}
						time.Sleep(100 * time.Microsecond)
						atomic.AddInt32(&running, -1)
						done <- struct{}{}
					})
				}()
			}
			for i := 0; i < n; i++ {
				<-done
			}

			convey.Convey("Then no two tasks ever overlap", func() {
				convey.So(atomic.LoadInt32(&overlap), convey.ShouldEqual, int32(0))
			})
		})

		convey.Convey("When a task panics", func() {
			after := make(chan struct{})
			convey.So(inbox.Enqueue(ctx, func(context.Context) { panic("bad task") }), convey.ShouldBeNil)
			convey.So(inbox.Enqueue(ctx, func(context.Context) { close(after) }), convey.ShouldBeNil)

			convey.Convey("Then the loop keeps running", func() {
				ran := false
				select {
				case <-after:
					ran = true
				case <-time.After(time.Second):
				}
				convey.So(ran, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down with queued work", func() {
			var ran int32
			for i := 0; i < 3; i++ {
				convey.So(inbox.Enqueue(ctx, func(context.Context) { atomic.AddInt32(&ran, 1) }), convey.ShouldBeNil)
			}
			shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()

			convey.Convey("Then queued tasks finish before Shutdown returns", func() {
				convey.So(loop.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(atomic.LoadInt32(&ran), convey.ShouldEqual, int32(3))
				convey.So(inbox.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cancel()

			convey.Convey("Then Run returns", func() {
				stopped := false
				select {
				case <-loop.Done():
					stopped = true
				case <-time.After(time.Second):
				}
				convey.So(stopped, convey.ShouldBeTrue)
			})
		})
	})
}

func TestLoopShutdownTimeout(t *testing.T) {
	convey.Convey("Given a loop stuck in a long task", t, func() {
		_ = logger.Init()

		inbox := queue.NewInMemoryQueue()
		loop := worker.NewLoop(inbox, worker.WithLogger(logger.Nop()))
		go loop.Run(context.Background())

		release := make(chan struct{})
		defer close(release)
		convey.So(inbox.Enqueue(context.Background(), func(context.Context) { <-release }), convey.ShouldBeNil)

		convey.Convey("When Shutdown's context expires first", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			convey.Convey("Then it reports the timeout", func() {
				convey.So(loop.Shutdown(ctx), convey.ShouldNotBeNil)
			})
		})
	})
}
