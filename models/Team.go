package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team represents a contest team; teams are created by seeding
type Team struct {
	ID        string      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string      `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	CreatedAt time.Time   `json:"created_at"`
	Questions []*Question `gorm:"many2many:team_questions;" json:"-"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
