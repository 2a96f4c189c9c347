package submissions

import (
	"codewhisperer/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all routes related to submissions
func RegisterRoutes(r *gin.RouterGroup, h *Handler, auth gin.HandlerFunc, limiter *middleware.SubmissionLimiter) {
	submissions := r.Group("/submissions")
	submissions.Use(auth)
	{
		submissions.POST("", middleware.SubmissionLimiterMiddleware(limiter), h.SaveSubmission)
		submissions.POST("/evaluate", middleware.SubmissionLimiterMiddleware(limiter), h.EvaluateSubmission)
		submissions.GET("/:questionId", h.GetTeamSubmissions)
	}
}
