package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	staleAfter = 10 * time.Minute
	pruneEvery = 5 * time.Minute
)

type rateLimitEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*rateLimitEntry
	limit     rate.Limit
	burst     int
	lastPrune time.Time
}

// NewRateLimiter creates a rate limiter.
// maxRequests is the burst size, perDuration is the window over which maxRequests are allowed.
func NewRateLimiter(maxRequests int, perDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*rateLimitEntry),
		limit:     rate.Limit(float64(maxRequests) / perDuration.Seconds()),
		burst:     maxRequests,
		lastPrune: time.Now(),
	}
}

func (rl *RateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastPrune) > pruneEvery {
		rl.prune(now)
	}

	entry, exists := rl.clients[clientIP]
	if !exists {
		entry = &rateLimitEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientIP] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// prune drops clients not seen recently. Callers hold mu.
func (rl *RateLimiter) prune(now time.Time) {
	for ip, entry := range rl.clients {
		if now.Sub(entry.lastSeen) > staleAfter {
			delete(rl.clients, ip)
		}
	}
	rl.lastPrune = now
}

// Middleware returns a gin middleware that rate limits requests.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}
