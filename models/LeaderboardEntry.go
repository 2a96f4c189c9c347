package models

import "time"

// LeaderboardEntry is a team's best result on one question
type LeaderboardEntry struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	TeamID       string      `gorm:"type:uuid;not null;uniqueIndex:idx_leaderboard_pair;column:team_id" json:"team_id"`
	QuestionID   string      `gorm:"type:uuid;not null;uniqueIndex:idx_leaderboard_pair;column:question_id" json:"question_id"`
	SubmissionID uint        `gorm:"not null;column:submission_id" json:"submission_id"`
	Rank         *int        `gorm:"column:rank" json:"rank"`
	Points       int         `gorm:"not null;default:0" json:"points"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Team         *Team       `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Submission   *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
}
