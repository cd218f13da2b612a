// Package ratelimit enforces a minimum spacing between outbound requests.
//
// The limiter is shared by every download worker: Papertrail enforces a
// request-rate ceiling per account, so spacing must be measured against one
// global clock. A per-worker throttle would silently multiply the request
// rate by the worker count.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter grants request slots no closer together than a fixed interval,
// measured between the starts of successive granted slots. It is safe for
// concurrent use. The mutex guards only the next-slot timestamp; it is
// never held while waiting.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// New returns a limiter with the given minimum spacing. A zero or negative
// interval disables throttling: Wait returns immediately.
func New(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait blocks until the caller's slot opens, then returns nil. The slot's
// start time is reserved under the lock before waiting, so concurrent
// callers queue up at interval-spaced start times regardless of how many
// are blocked at once. Returns the context's error if it is done first;
// a canceled wait does not give the reserved slot back.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	at := l.next
	if at.Before(now) {
		at = now
	}
	l.next = at.Add(l.interval)
	l.mu.Unlock()

	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
