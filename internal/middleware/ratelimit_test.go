package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if d := rl.Allow("key"); !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	d := rl.Allow("key")
	if d.Allowed {
		t.Error("6th request should be denied")
	}
	if d.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", d.Remaining)
	}

	if !rl.Allow("other").Allowed {
		t.Error("a different key has its own budget")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		rl.Allow("key")
	}

	// Should be blocked
	if rl.Allow("key").Allowed {
		t.Error("should be blocked within window")
	}

	now = now.Add(time.Minute + time.Second)

	d := rl.Allow("key")
	if !d.Allowed {
		t.Error("should be allowed after window expires")
	}
	if d.Remaining != 2 {
		t.Errorf("remaining = %d, want 2", d.Remaining)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("expired")
	now = now.Add(2 * time.Minute)
	rl.Allow("active")

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["expired"]; ok {
		t.Error("expired entry should have been cleaned up")
	}
	if _, ok := rl.entries["active"]; !ok {
		t.Error("active entry should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	keyFunc := func(r *http.Request) string { return "test" }

	handler := RateLimit(rl, keyFunc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First 2 requests should pass
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
		if got := rec.Header().Get("RateLimit-Limit"); got != "2" {
			t.Errorf("RateLimit-Limit = %q, want %q", got, "2")
		}
	}

	// 3rd request should be rate limited
	req := httptest.NewRequest("POST", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	if got := RealIP(req); got != "10.0.0.9" {
		t.Errorf("RealIP = %q, want %q", got, "10.0.0.9")
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if got := RealIP(req); got != "203.0.113.5" {
		t.Errorf("RealIP = %q, want %q", got, "203.0.113.5")
	}

	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	if got := RealIP(req); got != "198.51.100.2" {
		t.Errorf("RealIP = %q, want %q", got, "198.51.100.2")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")

	if got := ClientIP(false)(req); got != "10.0.0.9" {
		t.Errorf("untrusted ClientIP = %q, want %q", got, "10.0.0.9")
	}
	if got := ClientIP(true)(req); got != "198.51.100.2" {
		t.Errorf("trusted ClientIP = %q, want %q", got, "198.51.100.2")
	}
}
