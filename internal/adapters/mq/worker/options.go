package worker

import (
	"github.com/okian/absensi/pkg/logger"
)

// Option applies a configuration option to the Loop.
type Option func(*Loop)

// WithName sets the loop name for identification and logging.
func WithName(name string) Option {
	return func(w *Loop) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the loop.
func WithLogger(l logger.Logger) Option {
	return func(w *Loop) {
		if l != nil {
			w.logger = l
		}
	}
}
