// Package queue is the FIFO inbox feeding the session event loop.
//
// Producers block while the inbox is full rather than dropping work: every
// task represents a user command or a scan that must not be lost.
package queue

import (
	"context"
	"sync"

	"github.com/okian/absensi/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 256
)

// Task is a unit of work run on the event loop.
type Task func(ctx context.Context)

// Queue provides blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue appends t, waiting for room if the inbox is full.
	// Returns ErrStopped once the queue is closed, or ctx.Err().
	Enqueue(ctx context.Context, t Task) error

	// Dequeue returns the channel tasks arrive on, in enqueue order.
	// The channel is closed by Close after the backlog is drained.
	Dequeue() <-chan Task

	// Len returns the current number of queued tasks.
	Len() int

	// Close stops accepting tasks. Idempotent.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int

	done chan struct{}
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)
	metrics.UpdateInboxSize(0)
	return q
}

// Enqueue adds a task to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	// Holding the read lock keeps Close from closing the channel under a
	// blocked sender; Close signals done first so blocked senders let go.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrStopped
	}

	select {
	case q.tasks <- t:
		metrics.UpdateInboxSize(len(q.tasks))
		return nil
	case <-q.done:
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrStopped
	case <-ctx.Done():
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

// Dequeue returns the task channel.
func (q *InMemoryQueue) Dequeue() <-chan Task {
	return q.tasks
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len() int {
	size := len(q.tasks)
	metrics.UpdateInboxSize(size)
	return size
}

// Close gracefully shuts down the queue. Tasks already queued stay
// readable from Dequeue.
func (q *InMemoryQueue) Close() error {
	q.once.Do(func() {
		close(q.done)
		q.mu.Lock()
		q.closed = true
		close(q.tasks)
		q.mu.Unlock()
	})
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
