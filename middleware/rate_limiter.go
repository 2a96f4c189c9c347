package middleware

import (
	"net/http"
	"sync"
	"time"

	"codewhisperer/metrics"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a per-key token bucket refilled every interval
type RateLimiter struct {
	visitors map[string]*Visitor
	mu       sync.Mutex
	rate     int           // tokens added per interval
	burst    int           // bucket capacity
	interval time.Duration // refill interval
	now      func() time.Time
}

type Visitor struct {
	tokens      int
	lastUpdated time.Time
}

func NewRateLimiter(rate int, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*Visitor),
		rate:     rate,
		burst:    burst,
		interval: time.Minute,
		now:      time.Now,
	}
}

// Allow takes one token for key, refilling the bucket first
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	visitor, exists := rl.visitors[key]
	if !exists {
		visitor = &Visitor{tokens: rl.burst, lastUpdated: now}
		rl.visitors[key] = visitor
	}

	refill := int(now.Sub(visitor.lastUpdated) / rl.interval)
	if refill > 0 {
		visitor.tokens += refill * rl.rate
		if visitor.tokens > rl.burst {
			visitor.tokens = rl.burst
		}
		visitor.lastUpdated = visitor.lastUpdated.Add(time.Duration(refill) * rl.interval)
	}

	if visitor.tokens > 0 {
		visitor.tokens--
		return true
	}
	return false
}

func RateLimiterMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			metrics.RateLimiterRejections.WithLabelValues(ip).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
