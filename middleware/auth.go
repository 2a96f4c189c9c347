package middleware

import (
	"net/http"
	"strings"

	"codewhisperer/logger"
	"codewhisperer/models"
	"codewhisperer/services"
	"codewhisperer/utils/response"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "auth_token"
	sessionKey    = "session"
)

// TokenParser validates a session token
type TokenParser interface {
	ParseToken(token string) (*services.Claims, error)
}

// TokenFromRequest reads the session token from the cookie, then the bearer header
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// AuthMiddleware rejects requests without a valid session
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "No token provided")
			c.Abort()
			return
		}
		claims, err := parser.ParseToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		c.Set(sessionKey, claims)
		c.Set(logger.ContextKey, logger.FromContext(c).WithField("team", claims.TeamName))
		c.Next()
	}
}

// GetSession returns the claims stored by AuthMiddleware
func GetSession(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}

// RequirePermission aborts with 403 unless the session holds the permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetSession(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "No token provided")
			c.Abort()
			return
		}
		if !claims.Account().HasPermission(permission) {
			logger.FromContext(c).WithField("permission", permission).Warn("Permission denied")
			response.Error(c, http.StatusForbidden, "You do not have permission to perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminMiddleware guards the question management routes
func AdminMiddleware() gin.HandlerFunc {
	return RequirePermission(models.PermissionManageQuestions)
}
