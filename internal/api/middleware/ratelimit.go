package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter caps requests per client IP over a fixed window.
// In-memory only; good enough for a single process in front of one store.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	span    time.Duration
}

type window struct {
	opened time.Time
	count  int
}

// NewRateLimiter allows limit requests per span for each client.
func NewRateLimiter(limit int, span time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		span:    span,
	}
}

// Middleware rejects over-limit clients with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UTC()

	win := rl.windows[client]
	if win == nil || now.Sub(win.opened) >= rl.span {
		rl.windows[client] = &window{opened: now, count: 1}
		rl.prune(now)
		return true
	}

	if win.count >= rl.limit {
		return false
	}
	win.count++
	return true
}

// prune drops stale windows. Runs opportunistically under the lock whenever a
// window rolls over, so no background goroutine is needed.
func (rl *RateLimiter) prune(now time.Time) {
	for client, win := range rl.windows {
		if now.Sub(win.opened) >= rl.span {
			delete(rl.windows, client)
		}
	}
}

// clientIP identifies the caller, preferring proxy-set headers.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return r.RemoteAddr
}
