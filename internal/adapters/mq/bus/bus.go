// Package bus carries scan events from the scanner to any number of
// listeners in the same process.
//
// Delivery is synchronous and in subscription order, on the publisher's
// goroutine. There is no queueing and no replay: a listener subscribed after
// a publish never sees it. The bus does no error handling; a panicking
// listener panics the publisher.
package bus

import (
	"sync"

	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/pkg/metrics"
)

// Listener receives scan events.
type Listener func(ev model.ScanEvent)

// Publisher is the publishing half of the bus.
type Publisher interface {
	Publish(ev model.ScanEvent)
}

// Subscriber is the subscribing half of the bus.
type Subscriber interface {
	Subscribe(l Listener) (unsubscribe func())
}

type subscription struct {
	id uint64
	fn Listener
}

// Bus is an in-process publish/subscribe channel for scan events.
// Construct one per application session and inject it; there is no
// package-level instance.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Publish notifies every listener subscribed at the time of the call.
func (b *Bus) Publish(ev model.ScanEvent) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	metrics.RecordBusPublish(len(subs))
	for _, s := range subs {
		s.fn(ev)
	}
}

// Subscribe registers l and returns a function removing exactly that
// registration. Calling the returned function more than once is a no-op.
func (b *Bus) Subscribe(l Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: l})
	n := len(b.subs)
	b.mu.Unlock()
	metrics.UpdateBusSubscribers(n)

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// Len returns the number of active listeners.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	next := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.id != id {
			next = append(next, s)
		}
	}
	b.subs = next
	n := len(b.subs)
	b.mu.Unlock()
	metrics.UpdateBusSubscribers(n)
}
