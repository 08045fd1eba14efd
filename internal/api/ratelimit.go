// Per-client rate limiting for the admin endpoints.
package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps a token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*client
	limit    rate.Limit
	burst    int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows maxRate requests per window per client, all of
// which may arrive at once.
func NewRateLimiter(maxRate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*client),
		limit:    rate.Every(window / time.Duration(maxRate)),
		burst:    maxRate,
	}
}

// Allow reports whether ip may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.get(ip).Allow()
}

// RetryAfter returns how many seconds until ip gets its next token.
func (rl *RateLimiter) RetryAfter(ip string) int {
	r := rl.get(ip).Reserve()
	defer r.Cancel()
	return int(math.Ceil(r.Delay().Seconds()))
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.limiters[ip]
	if !ok {
		rl.prune(now)
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// prune drops clients idle long enough for their bucket to have refilled.
func (rl *RateLimiter) prune(now time.Time) {
	idle := time.Duration(float64(rl.burst)/float64(rl.limit)*float64(time.Second)) * 2
	for ip, c := range rl.limiters {
		if now.Sub(c.lastSeen) > idle {
			delete(rl.limiters, ip)
		}
	}
}

// clientIP is the first X-Forwarded-For hop, else the remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware wraps a handler with rate limiting. Returns 429 if exceeded.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
