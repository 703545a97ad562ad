package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/response"
)

// staleAfter is how long an idle client keeps its bucket.
const staleAfter = 3 * time.Minute

// RateLimiter is a per-IP token bucket. Each client may spend burst
// requests, refilled at burst per interval.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*bucket
	burst    int
	interval time.Duration
	now      func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter (e.g. 10 requests per minute). The
// background sweep of idle clients stops when ctx is done.
func NewRateLimiter(ctx context.Context, burst int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:  make(map[string]*bucket),
		burst:    burst,
		interval: interval,
		now:      time.Now,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.sweep()
			}
		}
	}()

	return rl
}

// Allow spends one token for key. When the bucket is empty it returns the
// wait until the next token.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[key]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastSeen: now}
		rl.clients[key] = b
	}

	perToken := rl.interval / time.Duration(rl.burst)
	b.tokens = math.Min(float64(rl.burst), b.tokens+float64(now.Sub(b.lastSeen))/float64(perToken))
	b.lastSeen = now

	if b.tokens < 1 {
		return false, time.Duration((1 - b.tokens) * float64(perToken))
	}
	b.tokens--
	return true, 0
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, b := range rl.clients {
		if now.Sub(b.lastSeen) > staleAfter {
			delete(rl.clients, key)
		}
	}
}
