package questions

import (
	"codewhisperer/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all routes related to questions
// r: the RouterGroup to which the routes are added
func RegisterRoutes(r *gin.RouterGroup, h *Handler, auth gin.HandlerFunc) {
	questions := r.Group("/questions")
	questions.Use(auth)
	{
		questions.GET("", h.GetAllQuestions)
		questions.GET("/selected", h.GetSelectedQuestions)
		questions.GET("/:id", h.GetQuestion)
		questions.POST("/:id/select", h.SelectQuestion)
		questions.POST("/:id/run", h.RunQuestion)

		admin := questions.Group("", middleware.AdminMiddleware())
		admin.POST("", h.CreateQuestion)
		admin.PUT("/:id", h.UpdateQuestion)
		admin.DELETE("/:id", h.DeleteQuestion)
		admin.POST("/:id/reset", h.ResetQuestion)
		admin.POST("/:id/image", h.UploadImage)
		admin.POST("/:id/testcases/import", h.ImportTestCases)
	}
}
