// Package ratelimit enforces a per-client token bucket on incoming requests.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/nimburion/tutoradmin/pkg/controller"
)

// RateLimiter defines the interface for rate limiting implementations.
// Implementations must be thread-safe and support per-key rate limiting.
type RateLimiter interface {
	// Allow reports whether a request for key is within its limit.
	Allow(key string) bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucketLimiter keeps one token bucket per key. Buckets idle for longer
// than the idle TTL are dropped by Cleanup.
type TokenBucketLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewTokenBucketLimiter creates a limiter allowing requestsPerSecond on
// average with bursts of up to burst requests per key.
func NewTokenBucketLimiter(requestsPerSecond float64, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether a request for key is within its limit.
func (l *TokenBucketLimiter) Allow(key string) bool {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[key] = v
	}
	now := l.now()
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Cleanup drops buckets not used within idle and returns how many were dropped.
func (l *TokenBucketLimiter) Cleanup(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	dropped := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			dropped++
		}
	}
	return dropped
}

// RunCleanup calls Cleanup(idle) every interval until ctx is done.
func (l *TokenBucketLimiter) RunCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup(idle)
		}
	}
}

// Len returns the number of tracked keys.
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// KeyFunc extracts the rate limiting key from a request.
type KeyFunc func(c *gin.Context) string

// ClientIP keys requests by the client IP gin resolves.
func ClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit creates middleware that answers 429 with a Retry-After header when
// the key returned by keyFunc is over its limit.
func RateLimit(limiter RateLimiter, keyFunc KeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = ClientIP
	}
	return func(c *gin.Context) {
		if !limiter.Allow(keyFunc(c)) {
			c.Header("Retry-After", "1")
			controller.Error(c, controller.NewTooManyRequestsError("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
