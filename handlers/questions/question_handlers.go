package questions

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"codewhisperer/logger"
	"codewhisperer/middleware"
	"codewhisperer/models"
	"codewhisperer/services"
	"codewhisperer/utils/response"
	"codewhisperer/worksheet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	questions   *services.QuestionService
	submissions *services.SubmissionService
}

func NewHandler(questions *services.QuestionService, submissions *services.SubmissionService) *Handler {
	return &Handler{questions: questions, submissions: submissions}
}

// GetAllQuestions lists every question
// @Summary Get all questions
// @Description Every question ordered by number, with test case counts
// @Tags Questions
// @Produce json
// @Success 200 {array} services.QuestionSummary
// @Failure 401 {object} map[string]string
// @Router /questions [get]
// @Security Bearer
func (h *Handler) GetAllQuestions(c *gin.Context) {
	questions, err := h.questions.GetAll(c.Request.Context())
	if err != nil {
		logger.FromContext(c).WithError(err).Error(ErrFetchQuestions)
		response.FromError(c, err, ErrFetchQuestions)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// GetSelectedQuestions lists the questions unlocked by the caller's team
// @Summary Get selected questions
// @Tags Questions
// @Produce json
// @Success 200 {array} models.Question
// @Failure 401 {object} map[string]string
// @Router /questions/selected [get]
// @Security Bearer
func (h *Handler) GetSelectedQuestions(c *gin.Context) {
	session, _ := middleware.GetSession(c)
	questions, err := h.questions.SelectedByTeam(c.Request.Context(), session.TeamID)
	if err != nil {
		response.FromError(c, err, ErrFetchQuestions)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// GetQuestion returns one question by id or code
// @Summary Get a question
// @Description Hidden test cases are only included for accounts allowed to view them
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID or code"
// @Success 200 {object} models.Question
// @Failure 404 {object} map[string]string
// @Router /questions/{id} [get]
// @Security Bearer
func (h *Handler) GetQuestion(c *gin.Context) {
	session, _ := middleware.GetSession(c)
	includeHidden := session.Account().HasPermission(models.PermissionViewHidden)

	question, err := h.questions.GetByID(c.Request.Context(), c.Param("id"), includeHidden)
	if err != nil {
		response.FromError(c, err, ErrFetchQuestion)
		return
	}
	c.JSON(http.StatusOK, question)
}

// CreateQuestion creates a question with its test cases
// @Summary Create a question
// @Tags Questions
// @Accept json
// @Produce json
// @Param question body services.QuestionInput true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /questions [post]
// @Security Bearer
func (h *Handler) CreateQuestion(c *gin.Context) {
	var req services.QuestionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	question, err := h.questions.Create(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err, ErrCreateQuestion)
		return
	}
	logger.FromContext(c).WithField("question", question.Code).Info("Question created")
	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion updates a question; test_cases, when present, replaces all of them
// @Summary Update a question
// @Tags Questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID or code"
// @Param question body services.UpdateQuestionInput true "Fields to update"
// @Success 200 {object} models.Question
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /questions/{id} [put]
// @Security Bearer
func (h *Handler) UpdateQuestion(c *gin.Context) {
	var req services.UpdateQuestionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	question, err := h.questions.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err, ErrUpdateQuestion)
		return
	}
	c.JSON(http.StatusOK, question)
}

// ImportTestCases replaces the test cases of a question from an XLSX upload
// @Summary Import test cases
// @Description Columns Input, Expected and optionally Visible
// @Tags Questions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Question ID or code"
// @Param file formData file true "XLSX file"
// @Success 200 {object} models.Question
// @Failure 400 {object} map[string]string
// @Router /questions/{id}/testcases/import [post]
// @Security Bearer
func (h *Handler) ImportTestCases(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, ErrNoFile+": "+err.Error())
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to open file")
		return
	}
	defer opened.Close()

	cases, err := services.ParseTestCasesXLSX(opened)
	if err != nil {
		response.FromError(c, err, ErrUpdateQuestion)
		return
	}
	question, err := h.questions.Update(c.Request.Context(), c.Param("id"), services.UpdateQuestionInput{TestCases: &cases})
	if err != nil {
		response.FromError(c, err, ErrUpdateQuestion)
		return
	}
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion deletes a question and everything attached to it
// @Summary Delete a question
// @Tags Questions
// @Param id path string true "Question ID or code"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /questions/{id} [delete]
// @Security Bearer
func (h *Handler) DeleteQuestion(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err, ErrDeleteQuestion)
		return
	}
	logger.FromContext(c).WithField("question", c.Param("id")).Info("Question deleted")
	c.Status(http.StatusNoContent)
}

// ResetQuestion wipes submissions and leaderboard entries of a question
// @Summary Reset a question
// @Tags Questions
// @Param id path string true "Question ID or code"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /questions/{id}/reset [post]
// @Security Bearer
func (h *Handler) ResetQuestion(c *gin.Context) {
	if err := h.questions.Reset(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err, ErrResetQuestion)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage attaches an illustration to a question
// @Summary Upload a question image
// @Tags Questions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Question ID or code"
// @Param image formData file true "Image"
// @Success 200 {object} models.Question
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /questions/{id}/image [post]
// @Security Bearer
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, ErrNoFile+": "+err.Error())
		return
	}
	if file.Size > maxImageSize {
		response.Error(c, http.StatusBadRequest, "Image is larger than 5MB")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error(c, http.StatusBadRequest, "Only image uploads are accepted")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to open file")
		return
	}
	defer opened.Close()

	question, err := h.questions.UploadImage(c.Request.Context(), c.Param("id"), path.Base(file.Filename), contentType, file.Size, opened)
	if err != nil {
		response.FromError(c, err, ErrUploadImage)
		return
	}
	c.JSON(http.StatusOK, question)
}

// SelectQuestion unlocks a question for the caller's team
// @Summary Select a question
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID or code"
// @Success 200 {object} models.Question
// @Failure 404 {object} map[string]string
// @Router /questions/{id}/select [post]
// @Security Bearer
func (h *Handler) SelectQuestion(c *gin.Context) {
	session, _ := middleware.GetSession(c)
	question, err := h.questions.Select(c.Request.Context(), session.TeamID, c.Param("id"))
	if err != nil {
		response.FromError(c, err, ErrSelectQuestion)
		return
	}
	c.JSON(http.StatusOK, question)
}

// RunQuestion runs a worksheet against the visible test cases without storing anything
// @Summary Practice run
// @Tags Questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID or code"
// @Param run body RunRequest true "Worksheet"
// @Success 200 {object} RunResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} RunResponse
// @Router /questions/{id}/run [post]
// @Security Bearer
func (h *Handler) RunQuestion(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := h.submissions.Run(c.Request.Context(), c.Param("id"), req.Worksheet)
	var halt *worksheet.HaltError
	if errors.As(err, &halt) {
		c.JSON(http.StatusUnprocessableEntity, RunResponse{
			Evaluation: ev,
			Halt:       &HaltInfo{CaseIndex: halt.CaseIndex, NodeID: halt.NodeID, Message: halt.Message},
		})
		return
	}
	if err != nil {
		response.FromError(c, err, ErrRunWorksheet)
		return
	}
	c.JSON(http.StatusOK, RunResponse{Evaluation: ev})
}
