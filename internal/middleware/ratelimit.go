package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RealIP extracts the client's real IP address, preferring Cloudflare's
// CF-Connecting-IP header, then X-Forwarded-For, and falling back to RemoteAddr.
// Those headers are client-controlled unless a proxy overwrites them, so
// RealIP is only meaningful behind a trusted proxy.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the original client
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	return PeerIP(r)
}

// PeerIP returns the address of the socket peer, ignoring forwarding headers.
func PeerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIP picks how callers are identified for rate limiting and spin
// records: RealIP when the service sits behind a trusted proxy, PeerIP
// otherwise.
func ClientIP(trustProxy bool) func(*http.Request) string {
	if trustProxy {
		return RealIP
	}
	return PeerIP
}

type entry struct {
	count    int
	windowAt time.Time
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter provides in-memory fixed-window rate limiting: each key gets
// limit requests per window, counted from the key's first request in the
// window.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*entry
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow counts one request for key and reports whether it is within budget.
func (rl *RateLimiter) Allow(key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	e, ok := rl.entries[key]
	if !ok || now.After(e.windowAt) {
		e = &entry{windowAt: now.Add(rl.window)}
		rl.entries[key] = e
	}
	e.count++

	remaining := rl.limit - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   e.count <= rl.limit,
		Limit:     rl.limit,
		Remaining: remaining,
		ResetAt:   e.windowAt,
	}
}

// Cleanup removes expired entries.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, e := range rl.entries {
		if now.After(e.windowAt) {
			delete(rl.entries, key)
		}
	}
}

// RateLimit returns middleware that rate-limits requests by a key function.
// Every response carries RateLimit-* headers; rejected requests get a 429
// with a JSON error body and Retry-After.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := limiter.Allow(keyFunc(r))

			reset := int(time.Until(d.ResetAt).Round(time.Second).Seconds())
			if reset < 0 {
				reset = 0
			}
			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(reset))

			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(reset))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests, please try again later."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
