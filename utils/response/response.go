package response

import (
	"errors"
	"net/http"

	"codewhisperer/services"
	"codewhisperer/worksheet"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// Error sends a standardized error response
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// Success sends a standardized success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// ValidationError sends a response for validation errors
func ValidationError(c *gin.Context, errors map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": errors})
}

// StatusFromError maps domain and storage errors to an HTTP status
func StatusFromError(err error) int {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrValidation), errors.Is(err, worksheet.ErrInvalidGraph):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrContestClosed):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return http.StatusConflict
	case errors.Is(err, worksheet.ErrExecutionHalted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// FromError writes the error with its mapped status; server errors get a generic message
func FromError(c *gin.Context, err error, fallback string) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		ValidationError(c, verr.Fields)
		return
	}
	status := StatusFromError(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		Error(c, status, fallback)
		return
	}
	Error(c, status, err.Error())
}
