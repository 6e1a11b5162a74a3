package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Result is the outcome of a single limiter check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // until the window resets, set when denied
}

// RetryAfterSeconds rounds the retry hint up to whole seconds for the
// Retry-After header and error body.
func (r Result) RetryAfterSeconds() int {
	return int(math.Ceil(r.RetryAfter.Seconds()))
}

// Limiter is a fixed-window request counter keyed by an arbitrary derived
// key (contact identifier, client address, ...).
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type entry struct {
	count   int
	resetAt time.Time
}

// FixedWindow counts requests per key in process memory. Sufficient for a
// single-process deployment; multiple instances need the Redis-backed
// limiter instead.
type FixedWindow struct {
	mu      sync.Mutex
	entries map[string]*entry
	max     int
	window  time.Duration
}

func NewFixedWindow(max int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		entries: make(map[string]*entry),
		max:     max,
		window:  window,
	}
}

func (l *FixedWindow) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(l.window)}
		return Result{Allowed: true, Remaining: l.max - 1}, nil
	}

	e.count++
	if e.count > l.max {
		return Result{Allowed: false, RetryAfter: e.resetAt.Sub(now)}, nil
	}
	return Result{Allowed: true, Remaining: l.max - e.count}, nil
}

// Sweep drops entries whose window has elapsed, bounding memory growth.
func (l *FixedWindow) Sweep() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
		}
	}
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (l *FixedWindow) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}
