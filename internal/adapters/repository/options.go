// Package repository implements the attendance backend contract in memory.
// It backs the demo mode and the end-to-end tests.
package repository

import (
	"time"

	"github.com/okian/absensi/pkg/logger"
)

// Option applies a configuration option to the Memory backend.
type Option func(*Memory)

// WithSecret sets the HMAC key student tokens are signed with.
func WithSecret(secret []byte) Option {
	return func(m *Memory) {
		if len(secret) > 0 {
			m.secret = append([]byte(nil), secret...)
		}
	}
}

// WithClock overrides the time source used for scans and batch writes.
func WithClock(clock func() time.Time) Option {
	return func(m *Memory) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLocation sets the school's location; it decides which date a scan
// belongs to.
func WithLocation(loc *time.Location) Option {
	return func(m *Memory) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Memory) {
		if l != nil {
			m.log = l
		}
	}
}
