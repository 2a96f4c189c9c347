package models

// TestCase is an input/expected pair; hidden cases are only checked at submission time
type TestCase struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionID string `gorm:"type:uuid;not null;index;column:question_id" json:"question_id"`
	Input      string `gorm:"type:text;not null" json:"input"`
	Expected   string `gorm:"type:text;not null" json:"expected"`
	IsVisible  bool   `gorm:"not null;default:false;column:is_visible" json:"is_visible"`
}
