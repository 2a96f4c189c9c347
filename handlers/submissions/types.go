package submissions

import (
	"codewhisperer/models"
	"codewhisperer/worksheet"
)

const (
	ErrSaveSubmission   = "Failed to save submission"
	ErrSubmitWorksheet  = "Failed to evaluate submission"
	ErrFetchSubmissions = "Failed to fetch submissions"
)

// SaveSubmissionRequest stores a result computed by the browser
type SaveSubmissionRequest struct {
	QuestionID      string                  `json:"question_id" binding:"required"`
	Worksheet       worksheet.Graph         `json:"worksheet"`
	PassedTestCases int                     `json:"passed_test_cases" binding:"min=0"`
	TotalTestCases  int                     `json:"total_test_cases" binding:"required,min=1"`
	FailedTestCases []models.FailedTestCase `json:"failed_test_cases"`
}

// EvaluateRequest asks the server to run every test case and store the result
type EvaluateRequest struct {
	QuestionID string          `json:"question_id" binding:"required"`
	Worksheet  worksheet.Graph `json:"worksheet"`
}
