package models

import (
	"time"

	"gorm.io/gorm"
)

type Test struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Duration    int     `json:"duration" gorm:"not null" validate:"required,min=5,max=300"` // minutes
	IsOpen      bool    `json:"is_open" gorm:"default:false;index"`

	// Availability window. Outside of it the test cannot be started.
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	MaxAttempts int `json:"max_attempts" gorm:"default:1" validate:"min=1,max=10"`

	// MaxQuestions caps how many questions an attempt presents. Zero means
	// the whole pool; a smaller value means a random subset pinned on the
	// attempt at start.
	MaxQuestions int `json:"max_questions" gorm:"default:0" validate:"min=0"`

	GroupID uint `json:"group_id" gorm:"not null;index"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Group     Group      `json:"group" gorm:"foreignKey:GroupID"`
	Questions []Question `json:"questions" gorm:"foreignKey:TestID"`

	// Computed fields (not stored)
	TotalScore     int `json:"total_score" gorm:"-"`
	QuestionsCount int `json:"questions_count" gorm:"-"`
}

func (Test) TableName() string {
	return "tests"
}

// ComputeTotals fills the derived score and count fields from the loaded
// question set.
func (t *Test) ComputeTotals() {
	t.QuestionsCount = len(t.Questions)
	t.TotalScore = 0
	for _, q := range t.Questions {
		t.TotalScore += q.Score
	}
}
