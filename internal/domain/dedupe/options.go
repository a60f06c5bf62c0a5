package dedupe

import "time"

// Option applies a configuration option to the Cooldown.
type Option func(*Cooldown)

// WithMinInterval sets the minimum gap between two admitted scans of any token.
func WithMinInterval(d time.Duration) Option {
	return func(c *Cooldown) {
		if d >= 0 {
			c.minInterval = d
		}
	}
}

// WithTokenWindow sets how long an admitted token is refused again.
func WithTokenWindow(d time.Duration) Option {
	return func(c *Cooldown) {
		if d >= 0 {
			c.tokenWindow = d
		}
	}
}

// WithMaxSize bounds the number of remembered tokens.
func WithMaxSize(size int) Option {
	return func(c *Cooldown) {
		if size > 0 {
			c.maxSize = size
		}
	}
}
