// Package dedupe throttles scanner input so a held-up QR code or a jittery
// camera does not submit the same arrival over and over.
package dedupe

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Default cooldown configuration constants.
const (
	defaultMinInterval = 2 * time.Second
	defaultTokenWindow = 10 * time.Second
	defaultMaxSize     = 1024
)

// Sentinel kinds for admission errors.
var (
	ErrCooldown  = errors.New("scan cooldown active")
	ErrDuplicate = errors.New("token scanned recently")
)

// Guard decides whether a scanned token may be submitted.
type Guard interface {
	// Admit records token at now, or returns ErrCooldown / ErrDuplicate.
	Admit(ctx context.Context, token string, now time.Time) error

	// Release forgets token so it can be retried immediately. Used when
	// the submission failed before reaching the backend.
	Release(ctx context.Context, token string)

	Size() int64
}

// Cooldown implements Guard with a global minimum interval between scans
// and a per-token window.
type Cooldown struct {
	mu          sync.Mutex
	seen        map[string]time.Time
	last        time.Time
	lastToken   string
	minInterval time.Duration
	tokenWindow time.Duration
	maxSize     int
}

// NewCooldown creates a cooldown guard with configuration options.
func NewCooldown(opts ...Option) *Cooldown {
	c := &Cooldown{
		minInterval: defaultMinInterval,
		tokenWindow: defaultTokenWindow,
		maxSize:     defaultMaxSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.seen = make(map[string]time.Time)
	return c
}

// Admit checks the global interval first, then the token window.
func (c *Cooldown) Admit(_ context.Context, token string, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.last.IsZero() && now.Sub(c.last) < c.minInterval {
		return ErrCooldown
	}
	if at, ok := c.seen[token]; ok && now.Sub(at) < c.tokenWindow {
		return ErrDuplicate
	}

	c.evict(now)
	c.seen[token] = now
	c.last = now
	c.lastToken = token
	return nil
}

// Release forgets token. If it was the most recent admission the global
// interval is lifted too.
func (c *Cooldown) Release(_ context.Context, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.seen, token)
	if c.lastToken == token {
		c.last = time.Time{}
		c.lastToken = ""
	}
}

// Size returns the number of remembered tokens.
func (c *Cooldown) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.seen))
}

// evict drops expired tokens and, if still full, the oldest one.
// Must be called with c.mu held.
func (c *Cooldown) evict(now time.Time) {
	for tok, at := range c.seen {
		if now.Sub(at) >= c.tokenWindow {
			delete(c.seen, tok)
		}
	}
	for len(c.seen) >= c.maxSize {
		var oldestTok string
		var oldest time.Time
		for tok, at := range c.seen {
			if oldestTok == "" || at.Before(oldest) {
				oldestTok, oldest = tok, at
			}
		}
		delete(c.seen, oldestTok)
	}
}
