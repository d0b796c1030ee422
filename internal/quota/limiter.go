// Package quota implements a token bucket pacer for outgoing Search Console
// API calls, keeping request bursts under the per-minute quotas the API
// enforces per credential.
package quota

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Config holds pacer configuration.
type Config struct {
	// RequestsPerSecond caps the steady-state call rate. Zero or negative
	// disables pacing.
	RequestsPerSecond float64
	// Burst is the number of calls that may fire back-to-back.
	Burst int
}

// Limiter paces API calls per credential identity, so rotating to a fresh
// credential starts from a fresh bucket.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// Wait blocks until a token is available for the given identity, respecting
// the context.
func (l *Limiter) Wait(ctx context.Context, identity string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[identity]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[identity] = limiter
	}
	l.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("quota wait: %w", err)
	}
	return nil
}
