package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestFixedWindowAllowsUpToMax(t *testing.T) {
	l := NewFixedWindow(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "a@b.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, err := l.Allow(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Fatal("4th request in window should be denied")
	}
	if res.RetryAfterSeconds() <= 0 {
		t.Fatalf("denied result must carry a positive retry hint, got %d", res.RetryAfterSeconds())
	}
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	l := NewFixedWindow(1, time.Minute)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "key1"); !res.Allowed {
		t.Fatal("first request for key1 should be allowed")
	}
	if res, _ := l.Allow(ctx, "key1"); res.Allowed {
		t.Fatal("second request for key1 should be denied")
	}
	if res, _ := l.Allow(ctx, "key2"); !res.Allowed {
		t.Fatal("key2 must not be affected by key1's counter")
	}
}

func TestFixedWindowResetsAfterWindow(t *testing.T) {
	l := NewFixedWindow(1, 50*time.Millisecond)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("first request should be allowed")
	}
	if res, _ := l.Allow(ctx, "k"); res.Allowed {
		t.Fatal("second request should be denied")
	}

	time.Sleep(60 * time.Millisecond)

	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("counter should reset once the window elapses")
	}
}

func TestFixedWindowSweepPurgesElapsedEntries(t *testing.T) {
	l := NewFixedWindow(5, 10*time.Millisecond)
	ctx := context.Background()

	l.Allow(ctx, "old")
	time.Sleep(20 * time.Millisecond)
	l.Allow(ctx, "fresh")

	l.Sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries["old"]; ok {
		t.Fatal("elapsed entry should be purged")
	}
	if _, ok := l.entries["fresh"]; !ok {
		t.Fatal("live entry must survive the sweep")
	}
}
