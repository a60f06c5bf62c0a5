package app

import (
	"time"

	"github.com/okian/absensi/internal/domain/dedupe"
	"github.com/okian/absensi/internal/domain/status"
	"github.com/okian/absensi/pkg/logger"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the school time zone used for scan times.
func WithLocation(loc *time.Location) Option {
	return func(s *Session) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithDefaultThreshold sets the threshold used when a class has none.
func WithDefaultThreshold(th status.Threshold) Option {
	return func(s *Session) {
		if th.Valid() {
			s.defaultThreshold = th
		}
	}
}

// WithInboxSize sets how many commands and scans may wait for the loop.
func WithInboxSize(size int) Option {
	return func(s *Session) {
		if size > 0 {
			s.inboxSize = size
		}
	}
}

// ScannerOption applies a configuration option to the Scanner.
type ScannerOption func(*Scanner)

// WithScannerLogger sets a custom logger for the scanner.
func WithScannerLogger(l logger.Logger) ScannerOption {
	return func(sc *Scanner) {
		if l != nil {
			sc.logger = l
		}
	}
}

// WithClock replaces time.Now for scan timestamps.
func WithClock(now func() time.Time) ScannerOption {
	return func(sc *Scanner) {
		if now != nil {
			sc.clock = now
		}
	}
}

// WithScannerLocation sets the time zone scan events are stamped in.
func WithScannerLocation(loc *time.Location) ScannerOption {
	return func(sc *Scanner) {
		if loc != nil {
			sc.loc = loc
		}
	}
}

// WithGuard replaces the default cooldown guard.
func WithGuard(g dedupe.Guard) ScannerOption {
	return func(sc *Scanner) {
		if g != nil {
			sc.guard = g
		}
	}
}
