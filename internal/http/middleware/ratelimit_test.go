package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	if !rl.Allow("pid:p-1") || !rl.Allow("pid:p-1") {
		t.Fatal("expected burst of two")
	}
	if rl.Allow("pid:p-1") {
		t.Fatal("expected third request to be limited")
	}
	if !rl.Allow("pid:p-2") {
		t.Fatal("other keys have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("pid:p-1") {
		t.Fatal("expected a token after one second")
	}

	now = now.Add(time.Hour)
	rl.evict(10 * time.Minute)
	rl.evict(0)
	if len(rl.buckets) != 0 {
		t.Fatalf("expected idle buckets evicted, have %d", len(rl.buckets))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := RateLimit(NewRateLimiter(0, 1))
	handler := mw(okHandler(nil))

	send := func(target, remote string) int {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("/api/session?pid=p-1", "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", code)
	}
	if code := send("/api/session?pid=p-1", "10.0.0.2:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected same participant limited, got %d", code)
	}
	if code := send("/health", "10.0.0.1:5555"); code != http.StatusOK {
		t.Fatalf("expected ip bucket separate from pid bucket, got %d", code)
	}
	if code := send("/health", "10.0.0.1:6666"); code != http.StatusTooManyRequests {
		t.Fatalf("expected same ip limited regardless of port, got %d", code)
	}
}
