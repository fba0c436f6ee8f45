package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(2, func() time.Time { return now })

	if !limiter.allow() || !limiter.allow() {
		t.Fatal("first two frames should pass")
	}
	if limiter.allow() {
		t.Fatal("third frame in the same window should be rejected")
	}

	now = now.Add(59 * time.Second)
	if limiter.allow() {
		t.Fatal("window has not elapsed yet")
	}

	now = now.Add(time.Second)
	if !limiter.allow() {
		t.Fatal("new window should reset the count")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := newRateLimiter(0, nil)
	for i := 0; i < 1000; i++ {
		if !limiter.allow() {
			t.Fatalf("frame %d rejected with limit disabled", i)
		}
	}

	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatal("nil limiter should allow")
	}
}
