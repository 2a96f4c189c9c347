package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codewhisperer/config"
	"codewhisperer/logger"
	"codewhisperer/models"
	"codewhisperer/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type staticParser map[string]*services.Claims

func (p staticParser) ParseToken(token string) (*services.Claims, error) {
	if claims, ok := p[token]; ok {
		return claims, nil
	}
	return nil, errors.New("bad token")
}

func testRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/protected", append(handlers, func(c *gin.Context) {
		claims, _ := GetSession(c)
		c.JSON(http.StatusOK, gin.H{"team": claims.TeamName})
	})...)
	return r
}

var parser = staticParser{
	"team-token": {TeamID: "t1", TeamName: "Team 1", Role: models.RoleTeam, RegisteredClaims: jwt.RegisteredClaims{Subject: "team1"}},
	"admin-token": {TeamID: "t0", TeamName: "Organizers", Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "admin"}},
}

func TestAuthMiddleware(t *testing.T) {
	r := testRouter(AuthMiddleware(parser))

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer team-token") }, http.StatusOK},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "team-token"}) }, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		tc.setup(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%s: got %d, want %d", tc.name, w.Code, tc.status)
		}
		if w.Header().Get(logger.RequestHeader) == "" {
			t.Fatalf("%s: missing request id header", tc.name)
		}
	}
}

func TestAdminMiddleware(t *testing.T) {
	r := testRouter(AuthMiddleware(parser), AdminMiddleware())

	for token, want := range map[string]int{"team-token": http.StatusForbidden, "admin-token": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("%s: got %d, want %d", token, w.Code, want)
		}
	}
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	r := testRouter(AuthMiddleware(parser))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(logger.RequestHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(logger.RequestHeader); got != "abc-123" {
		t.Fatalf("request id not propagated, got %q", got)
	}
}

func TestRateLimiter_RefillsPerInterval(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatalf("burst should be served")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("empty bucket must reject")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("buckets are per key")
	}
	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") || rl.Allow("1.2.3.4") {
		t.Fatalf("one token should be refilled after one interval")
	}
}

func TestSubmissionLimiter_EscalatingCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewSubmissionLimiter(config.SubmissionRateLimitConfig{
		AttemptsThreshold1: 2,
		CooldownDuration1:  10 * time.Second,
		AttemptsThreshold2: 3,
		CooldownDuration2:  time.Minute,
		Window:             5 * time.Minute,
	})
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow("t1"); !ok {
			t.Fatalf("attempt %d should pass", i)
		}
	}
	ok, wait := l.Allow("t1")
	if ok || wait != 10*time.Second {
		t.Fatalf("expected first cooldown, got ok=%v wait=%s", ok, wait)
	}
	if ok, _ := l.Allow("t2"); !ok {
		t.Fatalf("cooldowns are per team")
	}

	now = now.Add(11 * time.Second)
	if ok, _ := l.Allow("t1"); !ok {
		t.Fatalf("cooldown should have elapsed")
	}
	ok, wait = l.Allow("t1")
	if ok || wait != time.Minute {
		t.Fatalf("expected second cooldown, got ok=%v wait=%s", ok, wait)
	}

	now = now.Add(6 * time.Minute)
	if ok, _ := l.Allow("t1"); !ok {
		t.Fatalf("attempts outside the window must not count")
	}
}

func TestSubmissionLimiterMiddleware_Returns429(t *testing.T) {
	l := NewSubmissionLimiter(config.SubmissionRateLimitConfig{AttemptsThreshold1: 1, CooldownDuration1: time.Minute, Window: time.Hour})
	r := testRouter(AuthMiddleware(parser), SubmissionLimiterMiddleware(l))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer team-token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if i == 1 && w.Header().Get("Retry-After") == "" {
			t.Fatalf("missing Retry-After header")
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected statuses %v", codes)
	}
}
