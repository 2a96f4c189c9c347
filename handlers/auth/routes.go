package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all routes related to authentication
// r: the RouterGroup to which routes are added
func RegisterRoutes(r *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.GET("/session", authMiddleware, h.Session)
		auth.POST("/logout", h.Logout)
		auth.GET("/flash", h.Flash)
	}
}
