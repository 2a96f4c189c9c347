package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"codewhisperer/config"
	"codewhisperer/metrics"

	"github.com/gin-gonic/gin"
)

// SubmissionLimiter enforces an escalating cooldown on teams that submit in bursts
type SubmissionLimiter struct {
	cfg      config.SubmissionRateLimitConfig
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func NewSubmissionLimiter(cfg config.SubmissionRateLimitConfig) *SubmissionLimiter {
	return &SubmissionLimiter{cfg: cfg, attempts: make(map[string][]time.Time), now: time.Now}
}

// Allow records an attempt for the team, or returns how long it must wait
func (l *SubmissionLimiter) Allow(teamID string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.attempts[teamID][:0]
	for _, at := range l.attempts[teamID] {
		if now.Sub(at) < l.cfg.Window {
			recent = append(recent, at)
		}
	}

	if n := len(recent); n > 0 {
		var cooldown time.Duration
		switch {
		case l.cfg.AttemptsThreshold2 > 0 && n >= l.cfg.AttemptsThreshold2:
			cooldown = l.cfg.CooldownDuration2
		case l.cfg.AttemptsThreshold1 > 0 && n >= l.cfg.AttemptsThreshold1:
			cooldown = l.cfg.CooldownDuration1
		}
		if wait := recent[n-1].Add(cooldown).Sub(now); wait > 0 {
			l.attempts[teamID] = recent
			return false, wait
		}
	}

	l.attempts[teamID] = append(recent, now)
	return true, 0
}

// SubmissionLimiterMiddleware must run after AuthMiddleware
func SubmissionLimiterMiddleware(l *SubmissionLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetSession(c)
		if !ok {
			c.Next()
			return
		}
		if allowed, wait := l.Allow(claims.TeamID); !allowed {
			metrics.RateLimiterRejections.WithLabelValues("team:" + claims.TeamID).Inc()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many submissions. Please wait before trying again.",
				"retry_after": int(math.Ceil(wait.Seconds())),
			})
			return
		}
		c.Next()
	}
}
