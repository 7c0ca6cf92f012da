// api/middleware/rate_limiter.go
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a sliding-window limiter keyed by client IP.
type RateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter allows limit requests per window and client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records a request from key and reports whether it is within budget.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.window)

	// Drop timestamps outside the window
	requests := rl.requests[ip]
	kept := requests[:0]
	for _, t := range requests {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[ip] = kept
		return false
	}
	rl.requests[ip] = append(kept, now)
	return true
}

// Prune forgets clients without requests in the current window.
func (rl *RateLimiter) Prune() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	windowStart := rl.now().Add(-rl.window)
	for ip, requests := range rl.requests {
		if len(requests) == 0 || !requests[len(requests)-1].After(windowStart) {
			delete(rl.requests, ip)
		}
	}
}

// clientKey prefers the socket peer over forwarded headers.
func clientKey(c *gin.Context) string {
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.ClientIP()
}

// RateLimitMiddleware rejects clients over their budget with 429. Probe and
// scrape endpoints are never limited.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(rl.window.Seconds()))
	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/ping", "/metrics":
			c.Next()
			return
		}
		if !rl.Allow(clientKey(c)) {
			customLog.Warnf("Rate limit exceeded for %s on %s", clientKey(c), c.Request.URL.Path)
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, retry later"})
			return
		}
		c.Next()
	}
}
