package models

import (
	"fmt"
	"time"

	"codewhisperer/worksheet"
)

// FailedTestCase records the first mismatch of a run
type FailedTestCase struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Expected    string `json:"expected"`
	OriginalIdx int    `json:"originalIdx"`
}

// Submission is one stored slot of a team's history on a question
type Submission struct {
	ID              uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	TeamID          string           `gorm:"type:uuid;not null;index:idx_submission_pair;column:team_id" json:"team_id"`
	QuestionID      string           `gorm:"type:uuid;not null;index:idx_submission_pair;column:question_id" json:"question_id"`
	Worksheet       worksheet.Graph  `gorm:"type:jsonb;serializer:json" json:"worksheet"`
	PassedTestCases int              `gorm:"not null;default:0;column:passed_test_cases" json:"passed_test_cases"`
	TotalTestCases  int              `gorm:"not null;default:0;column:total_test_cases" json:"total_test_cases"`
	AllPassed       bool             `gorm:"not null;default:false;column:all_passed" json:"all_passed"`
	FailedTestCases []FailedTestCase `gorm:"type:jsonb;serializer:json;column:failed_test_cases" json:"failed_test_cases"`
	SubmissionCode  string           `gorm:"type:varchar(16);column:submission_code" json:"submission_code"`
	CreatedAt       time.Time        `json:"created_at"`
	Team            *Team            `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Question        *Question        `gorm:"foreignKey:QuestionID" json:"-"`
}

// SubmissionCode derives the public code of a submission from its id
func SubmissionCode(id uint) string {
	return fmt.Sprintf("SUB-%04d", id)
}
