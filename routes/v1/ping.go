package v1

import (
	"net/http"

	"codewhisperer/config"

	"github.com/gin-gonic/gin"
)

// PublicConfig is what browsers need to reach the live-update relay
type PublicConfig struct {
	SocketURL string `json:"socket_url"`
}

// @Summary Ping
// @Tags Support
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// @Summary Public configuration
// @Tags Support
// @Produce json
// @Success 200 {object} PublicConfig
// @Router /config [get]
func publicConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, PublicConfig{SocketURL: cfg.PublicSocketURL})
	}
}

// RegisterPingRoutes registers the health and public configuration routes
func RegisterPingRoutes(r *gin.RouterGroup, cfg *config.Config) {
	r.GET("/ping", ping)
	r.GET("/config", publicConfig(cfg))
}
