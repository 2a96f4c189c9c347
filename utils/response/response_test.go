package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"codewhisperer/services"
	"codewhisperer/worksheet"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("question Q9: %w", services.ErrNotFound), http.StatusNotFound},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{&services.ValidationError{Fields: map[string]string{"title": "required"}}, http.StatusBadRequest},
		{fmt.Errorf("%w: cycle", worksheet.ErrInvalidGraph), http.StatusBadRequest},
		{services.ErrContestClosed, http.StatusForbidden},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), http.StatusConflict},
		{&worksheet.HaltError{Message: "output is undefined"}, http.StatusUnprocessableEntity},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFromError(tc.err); got != tc.want {
			t.Fatalf("%v: got %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestFromError_HidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, errors.New("dial tcp 10.0.0.1:5432: refused"), "Failed to save submission")

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusInternalServerError || body["error"] != "Failed to save submission" {
		t.Fatalf("unexpected response %d %v", w.Code, body)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	FromError(c, &services.ValidationError{Fields: map[string]string{"title": "cannot be blank"}}, "x")
	if w.Code != http.StatusBadRequest || !json.Valid(w.Body.Bytes()) {
		t.Fatalf("unexpected validation response %d %s", w.Code, w.Body.String())
	}
}
