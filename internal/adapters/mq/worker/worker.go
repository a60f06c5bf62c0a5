// Package worker runs the session event loop.
//
// A Loop owns a single goroutine. Tasks run one at a time in arrival order,
// so state touched only from tasks needs no locking.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/absensi/internal/adapters/mq/queue"
	"github.com/okian/absensi/pkg/logger"
	"github.com/okian/absensi/pkg/metrics"
)

// Source is where the loop reads tasks from.
type Source interface {
	Dequeue() <-chan queue.Task
	Close() error
}

// Worker runs tasks until stopped.
type Worker interface {
	// Run starts the loop and blocks until ctx is cancelled or the source closes.
	Run(ctx context.Context)

	// Shutdown closes the source, lets queued tasks finish and waits.
	Shutdown(ctx context.Context) error
}

// Loop implements Worker on a single goroutine.
type Loop struct {
	source Source
	name   string
	logger logger.Logger

	started sync.Once
	done    chan struct{}
}

// NewLoop creates a loop reading from source.
func NewLoop(source Source, opts ...Option) *Loop {
	w := &Loop{
		source: source,
		name:   "loop",
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the loop. Calling Run a second time returns immediately.
func (w *Loop) Run(ctx context.Context) {
	first := false
	w.started.Do(func() { first = true })
	if !first {
		return
	}
	defer close(w.done)

	tasks := w.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			w.run(ctx, task)
		}
	}
}

// Done is closed when Run returns.
func (w *Loop) Done() <-chan struct{} {
	return w.done
}

// Shutdown stops accepting work, drains what is queued and waits for Run
// to return.
func (w *Loop) Shutdown(ctx context.Context) error {
	if err := w.source.Close(); err != nil {
		w.logger.Error(ctx, "error closing inbox", logger.Error(err))
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Loop) run(ctx context.Context, task queue.Task) {
	start := time.Now()
	defer func() {
		metrics.RecordTaskLatency(float64(time.Since(start).Microseconds()) / 1000)
		if r := recover(); r != nil {
			metrics.RecordTaskPanic()
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "task panicked", logger.Any("panic", r))
		}
	}()
	task(ctx)
}
