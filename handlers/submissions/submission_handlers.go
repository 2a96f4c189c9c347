package submissions

import (
	"errors"
	"net/http"

	"codewhisperer/logger"
	"codewhisperer/middleware"
	"codewhisperer/services"
	"codewhisperer/utils/response"
	"codewhisperer/worksheet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	submissions *services.SubmissionService
}

func NewHandler(submissions *services.SubmissionService) *Handler {
	return &Handler{submissions: submissions}
}

// SaveSubmission stores a result reported by the client for the caller's team
// @Summary Save a submission
// @Description Stores the result in the team's bounded history and updates the leaderboard on improvement
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission body SaveSubmissionRequest true "Submission"
// @Success 200 {object} services.SaveResult
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /submissions [post]
// @Security Bearer
func (h *Handler) SaveSubmission(c *gin.Context) {
	var req SaveSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	session, _ := middleware.GetSession(c)

	result, err := h.submissions.Save(c.Request.Context(), session.TeamID, req.QuestionID, services.SaveRequest{
		Worksheet:       req.Worksheet,
		PassedTestCases: req.PassedTestCases,
		TotalTestCases:  req.TotalTestCases,
		FailedTestCases: req.FailedTestCases,
	})
	if err != nil {
		logger.FromContext(c).WithError(err).WithField("question", req.QuestionID).Warn(ErrSaveSubmission)
		response.FromError(c, err, ErrSaveSubmission)
		return
	}
	logger.FromContext(c).WithFields(map[string]interface{}{
		"question":    req.QuestionID,
		"submission":  result.Submission.SubmissionCode,
		"leaderboard": result.LeaderboardUpdated,
	}).Info("Submission saved")
	c.JSON(http.StatusOK, result)
}

// EvaluateSubmission runs the worksheet on the server against every test case and stores the result
// @Summary Evaluate and save a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission body EvaluateRequest true "Worksheet"
// @Success 200 {object} services.SubmitResult
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Router /submissions/evaluate [post]
// @Security Bearer
func (h *Handler) EvaluateSubmission(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	session, _ := middleware.GetSession(c)

	result, err := h.submissions.Submit(c.Request.Context(), session.TeamID, req.QuestionID, req.Worksheet)
	var halt *worksheet.HaltError
	if errors.As(err, &halt) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      halt.Message,
			"case_index": halt.CaseIndex,
			"node_id":    halt.NodeID,
		})
		return
	}
	if err != nil {
		response.FromError(c, err, ErrSubmitWorksheet)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTeamSubmissions lists the stored submissions of the caller's team for a question
// @Summary Get team submissions
// @Tags Submissions
// @Produce json
// @Param questionId path string true "Question ID or code"
// @Success 200 {array} models.Submission
// @Failure 404 {object} map[string]string
// @Router /submissions/{questionId} [get]
// @Security Bearer
func (h *Handler) GetTeamSubmissions(c *gin.Context) {
	session, _ := middleware.GetSession(c)
	submissions, err := h.submissions.ListForTeam(c.Request.Context(), session.TeamID, c.Param("questionId"))
	if err != nil {
		response.FromError(c, err, ErrFetchSubmissions)
		return
	}
	c.JSON(http.StatusOK, submissions)
}
