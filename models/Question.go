package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

// Question represents a challenge teams solve by chaining functions
type Question struct {
	ID                   string             `gorm:"type:uuid;primary_key" json:"id"`
	Number               int                `gorm:"not null;uniqueIndex" json:"number"`
	Code                 string             `gorm:"type:varchar(16);not null;uniqueIndex" json:"code"`
	Slug                 string             `gorm:"type:varchar(120);not null" json:"slug"`
	Title                string             `gorm:"type:varchar(100);not null" json:"title"`
	Description          string             `gorm:"type:text" json:"description"`
	Difficulty           string             `gorm:"type:varchar(10);not null;default:EASY" json:"difficulty"`
	ImageURL             string             `gorm:"type:varchar(255);column:image_url" json:"image_url"`
	StartTime            *time.Time         `gorm:"column:start_time" json:"start_time"`
	EndTime              *time.Time         `gorm:"column:end_time" json:"end_time"`
	WinnerPoints         int                `gorm:"not null;default:0" json:"winner_points"`
	RunnerUpPoints       int                `gorm:"not null;default:0" json:"runner_up_points"`
	SecondRunnerUpPoints int                `gorm:"not null;default:0" json:"second_runner_up_points"`
	ParticipantPoints    int                `gorm:"not null;default:0" json:"participant_points"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	TestCases            []TestCase         `gorm:"foreignKey:QuestionID" json:"test_cases,omitempty"`
	Teams                []*Team            `gorm:"many2many:team_questions;" json:"-"`
	Submissions          []Submission       `gorm:"foreignKey:QuestionID" json:"-"`
	LeaderboardEntries   []LeaderboardEntry `gorm:"foreignKey:QuestionID" json:"-"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// QuestionCode derives the public code of a question from its number
func QuestionCode(number int) string {
	return fmt.Sprintf("Q%03d", number)
}

// IsOpen reports whether submissions are accepted at the given instant
func (q *Question) IsOpen(now time.Time) bool {
	if q.StartTime != nil && now.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && now.After(*q.EndTime) {
		return false
	}
	return true
}
