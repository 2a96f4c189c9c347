package leaderboard

import (
	"net/http"

	"codewhisperer/middleware"
	"codewhisperer/models"
	"codewhisperer/services"
	"codewhisperer/utils/response"

	"github.com/gin-gonic/gin"
)

const (
	ErrFetchLeaderboard  = "Failed to fetch leaderboard"
	ErrExportLeaderboard = "Failed to export leaderboard"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	leaderboard *services.LeaderboardService
}

func NewHandler(leaderboard *services.LeaderboardService) *Handler {
	return &Handler{leaderboard: leaderboard}
}

// GetOverallLeaderboard returns points summed over every question
// @Summary Overall leaderboard
// @Tags Leaderboard
// @Produce json
// @Success 200 {array} services.OverallRow
// @Router /leaderboard/overall [get]
// @Security Bearer
func (h *Handler) GetOverallLeaderboard(c *gin.Context) {
	rows, err := h.leaderboard.GetOverallLeaderboard(c.Request.Context())
	if err != nil {
		response.FromError(c, err, ErrFetchLeaderboard)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetLeaderboard returns the ranked entries of one question
// @Summary Question leaderboard
// @Tags Leaderboard
// @Produce json
// @Param questionId path string true "Question ID or code"
// @Success 200 {object} services.QuestionLeaderboard
// @Failure 404 {object} map[string]string
// @Router /leaderboard/{questionId} [get]
// @Security Bearer
func (h *Handler) GetLeaderboard(c *gin.Context) {
	board, err := h.leaderboard.GetLeaderboard(c.Request.Context(), c.Param("questionId"))
	if err != nil {
		response.FromError(c, err, ErrFetchLeaderboard)
		return
	}
	c.JSON(http.StatusOK, board)
}

// ExportLeaderboard downloads a leaderboard as an xlsx workbook; "overall" exports the overall one
// @Summary Export a leaderboard
// @Tags Leaderboard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param questionId path string true "Question ID, code or overall"
// @Success 200 {file} file
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /leaderboard/{questionId}/export [get]
// @Security Bearer
func (h *Handler) ExportLeaderboard(c *gin.Context) {
	raw, filename, err := h.leaderboard.Export(c.Request.Context(), c.Param("questionId"))
	if err != nil {
		response.FromError(c, err, ErrExportLeaderboard)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, raw)
}

// RegisterRoutes registers all routes related to the leaderboard
func RegisterRoutes(r *gin.RouterGroup, h *Handler, auth gin.HandlerFunc) {
	leaderboard := r.Group("/leaderboard")
	leaderboard.Use(auth)
	{
		leaderboard.GET("/overall", h.GetOverallLeaderboard)
		leaderboard.GET("/:questionId", h.GetLeaderboard)
		leaderboard.GET("/:questionId/export", middleware.RequirePermission(models.PermissionExport), h.ExportLeaderboard)
	}
}
