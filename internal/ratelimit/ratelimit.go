// Package ratelimit implements a sliding-window request limiter.
//
// The limiter never blocks: callers check CanMakeRequest and fail fast with
// the wait reported by WaitTime when denied.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultMaxRequests is the default request budget per window.
	DefaultMaxRequests = 10
	// DefaultWindow is the default trailing window size.
	DefaultWindow = 60 * time.Second
)

// Limiter tracks request timestamps inside a trailing window. Safe for
// concurrent use.
type Limiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	requests []time.Time

	// now is swappable in tests.
	now func() time.Time
}

// New creates a Limiter allowing max requests per window. Non-positive
// arguments fall back to the defaults.
func New(max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		max:      max,
		window:   window,
		requests: make([]time.Time, 0, max),
		now:      time.Now,
	}
}

// CanMakeRequest prunes timestamps older than the window and reports whether
// another request fits in the budget.
func (l *Limiter) CanMakeRequest() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return len(l.requests) < l.max
}

// RecordRequest appends the current time to the window.
func (l *Limiter) RecordRequest() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests = append(l.requests, l.now())
}

// WaitTime returns how long the caller should wait before the oldest recorded
// request leaves the window, or zero if there is no history.
func (l *Limiter) WaitTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.requests) == 0 {
		return 0
	}
	// Timestamps are appended in order, so the oldest is first.
	wait := l.window - now.Sub(l.requests[0])
	if wait < 0 {
		return 0
	}
	return wait
}

// Remaining reports the unused budget in the current window, for status display.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return l.max - len(l.requests)
}

// Max returns the configured per-window budget.
func (l *Limiter) Max() int {
	return l.max
}

// Window returns the configured window size.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// prune drops timestamps that have left the window. Callers must hold mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(l.requests) && !l.requests[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.requests = append(l.requests[:0], l.requests[idx:]...)
	}
}
