package auth

import (
	"net/http"
	"time"

	"codewhisperer/middleware"

	"github.com/gin-gonic/gin"
)

// Constants for error messages
const (
	ErrInvalidCredentials  = "Invalid credentials"
	ErrTokenGenerateFailed = "Failed to generate token"
	ErrLogoutSuccess       = "Successfully logged out"
	MsgLoginSuccess        = "Welcome back"

	FlashErrorCookie   = "flash_error"
	FlashSuccessCookie = "flash_success"
	flashMaxAge        = 60
)

// LoginRequest accepts JSON or form bodies
type LoginRequest struct {
	TeamName string `json:"team_name" form:"team_name" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// SessionResponse describes the current session
type SessionResponse struct {
	AccountID   string    `json:"account_id"`
	TeamID      string    `json:"team_id"`
	TeamName    string    `json:"team_name"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// FlashResponse carries the one-shot messages left by a form login
type FlashResponse struct {
	Error   string `json:"error,omitempty"`
	Success string `json:"success,omitempty"`
}

// setCookieToken sets the authentication token as an HTTP-only cookie
func setCookieToken(c *gin.Context, token string, maxAge time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.SessionCookie, // name
		token,                    // value
		int(maxAge.Seconds()),    // max age in seconds
		"/",                      // path
		"",                       // domain
		secure,                   // secure (HTTPS only)
		true,                     // httpOnly (not accessible via JavaScript)
	)
}

// setFlash leaves a short-lived message for the next page; the UI reads it once
func setFlash(c *gin.Context, name, message string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, message, flashMaxAge, "/", "", secure, false)
}

func clearCookie(c *gin.Context, name string, secure bool, httpOnly bool) {
	c.SetCookie(name, "", -1, "/", "", secure, httpOnly)
}
