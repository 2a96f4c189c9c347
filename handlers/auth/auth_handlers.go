package auth

import (
	"net/http"
	"strings"
	"time"

	"codewhisperer/logger"
	"codewhisperer/middleware"
	"codewhisperer/services"
	"codewhisperer/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type Handler struct {
	auth          *services.AuthService
	appURL        string
	secureCookies bool
}

func NewHandler(auth *services.AuthService, appURL string, secureCookies bool) *Handler {
	return &Handler{auth: auth, appURL: strings.TrimRight(appURL, "/"), secureCookies: secureCookies}
}

func isFormRequest(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == binding.MIMEPOSTForm || ct == binding.MIMEMultipartPOSTForm
}

// Login authenticates a team
// @Summary Login
// @Description JSON logins get the session in the body; form logins are redirected back to the app with a flash message
// @Tags Auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} services.Session
// @Success 303
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	form := isFormRequest(c)

	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		if form {
			h.redirectWithFlash(c, "/login", FlashErrorCookie, "Team name and password are required")
			return
		}
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.TeamName, req.Password)
	if err != nil {
		logger.FromContext(c).WithField("team", req.TeamName).WithError(err).Warn("Login failed")
		status := response.StatusFromError(err)
		message := ErrInvalidCredentials
		if status == http.StatusInternalServerError {
			message = ErrTokenGenerateFailed
		}
		if form {
			h.redirectWithFlash(c, "/login", FlashErrorCookie, message)
			return
		}
		response.Error(c, status, message)
		return
	}

	setCookieToken(c, session.Token, time.Until(session.ExpiresAt), h.secureCookies)
	logger.FromContext(c).WithField("team", session.TeamName).Info("Team logged in")
	if form {
		h.redirectWithFlash(c, "/", FlashSuccessCookie, MsgLoginSuccess+", "+session.TeamName)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) redirectWithFlash(c *gin.Context, path, cookie, message string) {
	setFlash(c, cookie, message, h.secureCookies)
	c.Redirect(http.StatusSeeOther, h.appURL+path)
}

// Session returns the caller's session
// @Summary Current session
// @Tags Auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]string
// @Router /auth/session [get]
// @Security Bearer
func (h *Handler) Session(c *gin.Context) {
	claims, _ := middleware.GetSession(c)
	resp := SessionResponse{
		AccountID:   claims.Subject,
		TeamID:      claims.TeamID,
		TeamName:    claims.TeamName,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, resp)
}

// Logout clears the session cookie
// @Summary Logout
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	clearCookie(c, middleware.SessionCookie, h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": ErrLogoutSuccess})
}

// Flash returns the pending flash messages and clears them
// @Summary Read flash messages
// @Tags Auth
// @Produce json
// @Success 200 {object} FlashResponse
// @Router /auth/flash [get]
func (h *Handler) Flash(c *gin.Context) {
	var resp FlashResponse
	if v, err := c.Cookie(FlashErrorCookie); err == nil && v != "" {
		resp.Error = v
		clearCookie(c, FlashErrorCookie, h.secureCookies, false)
	}
	if v, err := c.Cookie(FlashSuccessCookie); err == nil && v != "" {
		resp.Success = v
		clearCookie(c, FlashSuccessCookie, h.secureCookies, false)
	}
	c.JSON(http.StatusOK, resp)
}
