// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter that refills `perMinute` tokens a minute with room
// for `burst` back-to-back requests.
func New(perMinute float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether a request for key may proceed, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Reset forgets key, e.g. after a successful login.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Sweep drops buckets not touched for idle and returns how many were removed.
func (l *Limiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	n := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles login attempts per client IP and per account, so
// neither a single address nor a spread of addresses can hammer one account.
type LoginLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewLoginLimiter builds a LoginLimiter. Per-account limits are half the
// per-IP limits.
func NewLoginLimiter(perMinute float64, burst int) *LoginLimiter {
	emailBurst := burst / 2
	if emailBurst < 1 {
		emailBurst = 1
	}
	return &LoginLimiter{
		ip:    New(perMinute, burst),
		email: New(perMinute/2, emailBurst),
	}
}

// Check reports whether a login attempt may proceed and, if not, why.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.ip.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := normalizeEmail(email); key != "" {
		if !ll.email.Allow(key) {
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetEmail clears the per-account bucket after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := normalizeEmail(email); key != "" {
		ll.email.Reset(key)
	}
}

// Sweep drops idle buckets from both limiters.
func (ll *LoginLimiter) Sweep(idle time.Duration) int {
	return ll.ip.Sweep(idle) + ll.email.Sweep(idle)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
