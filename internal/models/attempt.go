package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAIReviewed AttemptStatus = "ai_reviewed"
	AttemptReviewed   AttemptStatus = "reviewed"
)

// IsTerminal reports whether the exam-taking flow may still mutate the
// attempt. Completed and reviewed attempts are only touched by the grading
// paths.
func (s AttemptStatus) IsTerminal() bool {
	return s != AttemptInProgress
}

type Attempt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	TestID        uint          `json:"test_id" gorm:"not null;index:idx_attempt_student_test;uniqueIndex:idx_attempt_number"`
	StudentID     string        `json:"student_id" gorm:"not null;size:255;index:idx_attempt_student_test;uniqueIndex:idx_attempt_number"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_number"`
	Status        AttemptStatus `json:"status" gorm:"default:in_progress;index"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at"`

	// Score holds the deterministic (objective) part, AIScore the part the
	// subjective grading pipeline produced. Kept separate so a regrade never
	// touches the objective score.
	Score   float64 `json:"score"`
	AIScore float64 `json:"ai_score"`

	// QuestionIDs is the pinned ordered question subset chosen at start.
	// Navigation and resume always read this list, never the live test pool.
	QuestionIDs datatypes.JSON `json:"question_ids" gorm:"type:jsonb;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Test        Test         `json:"test" gorm:"foreignKey:TestID"`
	Student     User         `json:"student" gorm:"foreignKey:StudentID"`
	Submissions []Submission `json:"submissions" gorm:"foreignKey:AttemptID"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// PinnedQuestionIDs decodes the stored question subset.
func (a *Attempt) PinnedQuestionIDs() ([]uint, error) {
	var ids []uint
	if len(a.QuestionIDs) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(a.QuestionIDs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetPinnedQuestionIDs encodes the question subset onto the attempt.
func (a *Attempt) SetPinnedQuestionIDs(ids []uint) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	a.QuestionIDs = data
	return nil
}

// Deadline is the instant the attempt expires.
func (a *Attempt) Deadline(duration int) time.Time {
	return a.StartedAt.Add(time.Duration(duration) * time.Minute)
}

type Submission struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`

	// Exactly one of the two answer shapes is populated, matching the
	// question type. Recording an option answer clears the text and vice
	// versa.
	SelectedOptionIDs datatypes.JSON `json:"selected_option_ids" gorm:"type:jsonb"`
	AnswerText        *string        `json:"answer_text" gorm:"type:text"`

	Score            float64 `json:"score"`
	Feedback         *string `json:"feedback" gorm:"type:text"`
	AIGraded         bool    `json:"ai_graded" gorm:"default:false;index"`
	RegradeRequested bool    `json:"regrade_requested" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempt  Attempt  `json:"-" gorm:"foreignKey:AttemptID"`
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (Submission) TableName() string {
	return "submissions"
}

// SelectedOptions decodes the selected option ID set.
func (s *Submission) SelectedOptions() ([]uint, error) {
	var ids []uint
	if len(s.SelectedOptionIDs) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(s.SelectedOptionIDs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetSelectedOptions encodes the selected option ID set.
func (s *Submission) SetSelectedOptions(ids []uint) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	s.SelectedOptionIDs = data
	return nil
}

// HasAnswer reports whether the submission carries any student answer.
func (s *Submission) HasAnswer() bool {
	if s.AnswerText != nil && *s.AnswerText != "" {
		return true
	}
	ids, err := s.SelectedOptions()
	return err == nil && len(ids) > 0
}
