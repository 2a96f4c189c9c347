package v1

import (
	"codewhisperer/config"
	"codewhisperer/handlers/auth"
	"codewhisperer/handlers/functions"
	"codewhisperer/handlers/leaderboard"
	"codewhisperer/handlers/questions"
	"codewhisperer/handlers/submissions"
	"codewhisperer/middleware"
	"codewhisperer/operations"
	"codewhisperer/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies are the services the API routes are built on
type Dependencies struct {
	Config      *config.Config
	Auth        *services.AuthService
	Questions   *services.QuestionService
	Submissions *services.SubmissionService
	Leaderboard *services.LeaderboardService
	Registry    *operations.Registry
}

// Register the endpoints for the v1 API
func Register(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg)))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.MetricsMiddleware())

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitBurst)
	v1.Use(middleware.RateLimiterMiddleware(rateLimiter))

	authMiddleware := middleware.AuthMiddleware(deps.Auth)
	submissionLimiter := middleware.NewSubmissionLimiter(cfg.SubmissionRate)
	secureCookies := cfg.GinMode == gin.ReleaseMode

	RegisterPingRoutes(v1, cfg)
	auth.RegisterRoutes(v1, auth.NewHandler(deps.Auth, cfg.AppURL, secureCookies), authMiddleware)
	questions.RegisterRoutes(v1, questions.NewHandler(deps.Questions, deps.Submissions), authMiddleware)
	functions.RegisterRoutes(v1, functions.NewHandler(deps.Registry), authMiddleware)
	submissions.RegisterRoutes(v1, submissions.NewHandler(deps.Submissions), authMiddleware, submissionLimiter)
	leaderboard.RegisterRoutes(v1, leaderboard.NewHandler(deps.Leaderboard), authMiddleware)

	RegisterMetricsRoutes(v1)
	RegisterSwaggerRoutes(v1)
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	if cfg.AppURL != "" {
		c.AllowOrigins = []string{cfg.AppURL}
	} else {
		c.AllowAllOrigins = true
	}
	c.AllowCredentials = cfg.AppURL != ""
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Request-ID")
	c.ExposeHeaders = []string{"X-Request-ID", "Retry-After", "Content-Disposition"}
	return c
}
