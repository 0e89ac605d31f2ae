// Sliding-window rate limiting per caller identity.
//
// The limiter keeps the timestamps of admitted requests inside the
// trailing window and refuses admission once the window is full.
// Timestamps are recorded only for calls that actually reached the
// provider and succeeded, so failed calls do not consume budget.

package gateway

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitError is a local admission refusal: the caller has used its
// full request budget for the trailing window.
type RateLimitError struct {
	Identity   string
	Max        int
	Window     time.Duration
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %q: %d requests per %s, retry in %s",
		e.Identity, e.Max, e.Window, e.RetryAfter.Round(time.Millisecond))
}

// Limiter admits at most maxRequests per identity within a trailing
// window. Windows are created lazily per identity and pruned on each
// check.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	window  time.Duration
	max     int
	now     func() time.Time
}

// NewLimiter creates a limiter allowing maxRequests per window.
func NewLimiter(window time.Duration, maxRequests int) *Limiter {
	return &Limiter{
		windows: make(map[string][]time.Time),
		window:  window,
		max:     maxRequests,
		now:     time.Now,
	}
}

// Allow reports whether identity may issue another request. Returns a
// *RateLimitError when the window is full. Allow does not reserve
// budget; call Record once the request succeeds.
func (l *Limiter) Allow(identity string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamps := l.prune(identity)
	if len(timestamps) >= l.max {
		return &RateLimitError{
			Identity:   identity,
			Max:        l.max,
			Window:     l.window,
			RetryAfter: timestamps[0].Add(l.window).Sub(l.now()),
		}
	}
	return nil
}

// Record charges one request against identity's window.
func (l *Limiter) Record(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.windows[identity] = append(l.prune(identity), l.now())
}

// Remaining returns how many requests identity may still issue in the
// current window.
func (l *Limiter) Remaining(identity string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := l.max - len(l.prune(identity))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// prune drops timestamps older than the window and returns what is left.
// Caller must hold l.mu.
func (l *Limiter) prune(identity string) []time.Time {
	cutoff := l.now().Add(-l.window)
	timestamps := l.windows[identity]

	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.windows[identity] = kept
	return kept
}
