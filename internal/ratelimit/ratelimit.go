package ratelimit

import (
	"sync"
	"time"
)

// Limiter is an in-process counter gating write-heavy endpoints per actor
// key. Semantics: on the first request for a key, or once the window has
// elapsed, the counter resets to 1 and a fresh window starts from now.
// Within an active window each call increments the counter and the request
// is allowed while the count stays at or below the limit.
//
// Check-and-increment happens under one lock so two concurrent requests can
// never both observe "one under the limit" and both pass. Counters are
// process-local; a multi-process deployment needs a shared atomic store
// instead.

type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	windowStart time.Time
	count       int
}

// Decision is the outcome of one Allow call. RetryAfterSeconds is only set
// when the request was rejected.

type Decision struct {
	Allowed           bool
	RetryAfterSeconds int64
}

func New() *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// NewWithClock is used by tests to control time.
func NewWithClock(now func() time.Time) *Limiter {
	l := New()
	l.now = now
	return l
}

// Allow performs an atomic check-and-increment for the key.
func (l *Limiter) Allow(key string, maxRequests int, window time.Duration) Decision {
	if maxRequests <= 0 {
		return Decision{Allowed: false, RetryAfterSeconds: ceilSeconds(window)}
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !now.Before(e.windowStart.Add(window)) {
		l.entries[key] = &entry{windowStart: now, count: 1}
		return Decision{Allowed: true}
	}

	e.count++
	if e.count <= maxRequests {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, RetryAfterSeconds: ceilSeconds(e.windowStart.Add(window).Sub(now))}
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
