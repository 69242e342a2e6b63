package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	SingleChoice  QuestionType = "single_choice"
	MultiChoice   QuestionType = "multi_choice"
	FreeText      QuestionType = "free_text"
	FreeTextImage QuestionType = "free_text_image"
	ImageOnly     QuestionType = "image_only"
)

// IsChoice reports whether the type is answered by selecting options and is
// therefore auto-gradable.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultiChoice
}

// IsSubjective reports whether the type needs AI or teacher grading.
func (t QuestionType) IsSubjective() bool {
	return !t.IsChoice()
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
)

type Question struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	TestID   uint         `json:"test_id" gorm:"not null;index;uniqueIndex:idx_test_question_position"`
	Text     string       `json:"text" gorm:"not null;type:text" validate:"required"`
	ImageURL *string      `json:"image_url" gorm:"size:500"`
	Type     QuestionType `json:"type" gorm:"not null;size:30" validate:"required,question_type"`

	// Position is the stable ordering key within a test.
	Position int `json:"position" gorm:"not null;uniqueIndex:idx_test_question_position"`

	Score      int             `json:"score" gorm:"not null" validate:"required,min=1,max=100"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"size:10" validate:"omitempty,difficulty_level"`

	// CorrectAnswer is the canonical reference answer for free-text types,
	// fed to the AI grader as part of the prompt.
	CorrectAnswer *string `json:"correct_answer" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Options []Option `json:"options" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectOptionIDs returns the IDs of all options flagged correct.
func (q *Question) CorrectOptionIDs() []uint {
	var ids []uint
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

type Option struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	QuestionID  uint    `json:"question_id" gorm:"not null;index"`
	Text        string  `json:"text" gorm:"not null;type:text" validate:"required"`
	Description *string `json:"description" gorm:"type:text"`
	IsCorrect   bool    `json:"-" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Option) TableName() string {
	return "options"
}
