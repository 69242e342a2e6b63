package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

// ===== REQUEST TYPES =====

type StartAttemptRequest struct {
	TestID uint `json:"test_id" validate:"required"`
}

// AnswerPayload carries one answer for one question. For choice questions
// the option set replaces whatever was selected before; for free-text types
// the text replaces the previous text.
type AnswerPayload struct {
	QuestionID        uint    `json:"question_id" validate:"required"`
	SelectedOptionIDs []uint  `json:"selected_option_ids"`
	AnswerText        *string `json:"answer_text"`
}

type NavigateRequest struct {
	Current int            `json:"current" validate:"required,min=1"`
	Answer  *AnswerPayload `json:"answer"`
}

// GradeAttemptRequest names the AI service and optionally carries its
// credential. Empty fields fall back to the configured defaults.
type GradeAttemptRequest struct {
	AIService string `json:"ai_service"`
	APIKey    string `json:"api_key"`
}

// ===== RESPONSE TYPES =====

type OptionView struct {
	ID          uint    `json:"id"`
	Text        string  `json:"text"`
	Description *string `json:"description,omitempty"`
}

type QuestionData struct {
	ID       uint                `json:"id"`
	Text     string              `json:"text"`
	ImageURL *string             `json:"image_url,omitempty"`
	Type     models.QuestionType `json:"type"`
	Score    int                 `json:"score"`
	Options  []OptionView        `json:"options,omitempty"`
}

type AnswerView struct {
	SelectedOptionIDs []uint  `json:"selected_option_ids,omitempty"`
	AnswerText        *string `json:"answer_text,omitempty"`
}

// QuestionView is what the student client renders for one step of an
// attempt.
type QuestionView struct {
	AttemptID     uint         `json:"attempt_id"`
	Index         int          `json:"index"` // 1-based within the pinned list
	Total         int          `json:"total"`
	TimeRemaining int          `json:"time_remaining"` // seconds, floored at 0
	Question      QuestionData `json:"question"`
	Answer        *AnswerView  `json:"answer,omitempty"`
	IsFirst       bool         `json:"is_first"`
	IsLast        bool         `json:"is_last"`
}

type QuestionResult struct {
	QuestionID uint                `json:"question_id"`
	Index      int                 `json:"index"`
	Type       models.QuestionType `json:"type"`
	MaxScore   int                 `json:"max_score"`
	Score      float64             `json:"score"`
	Answered   bool                `json:"answered"`
	AIGraded   bool                `json:"ai_graded"`
	Feedback   *string             `json:"feedback,omitempty"`
}

type AttemptResult struct {
	AttemptID     uint                 `json:"attempt_id"`
	Status        models.AttemptStatus `json:"status"`
	Score         float64              `json:"score"`
	AIScore       float64              `json:"ai_score"`
	TotalScore    int                  `json:"total_score"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	Breakdown     []QuestionResult     `json:"breakdown"`
	PendingReview int                  `json:"pending_review"` // subjective submissions not yet AI graded
}

type AttemptStatusView struct {
	AttemptID     uint                 `json:"attempt_id"`
	Status        models.AttemptStatus `json:"status"`
	AnsweredCount int                  `json:"answered_count"`
	Total         int                  `json:"total"`
	Answered      []bool               `json:"answered"` // per pinned question, in order
	TimeRemaining int                  `json:"time_remaining"`
	IsExpired     bool                 `json:"is_expired"`
	IsCompleted   bool                 `json:"is_completed"`
}

type AttemptSummary struct {
	ID            uint                 `json:"id"`
	TestID        uint                 `json:"test_id"`
	TestTitle     string               `json:"test_title"`
	AttemptNumber int                  `json:"attempt_number"`
	Status        models.AttemptStatus `json:"status"`
	StartedAt     time.Time            `json:"started_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	Score         float64              `json:"score"`
	AIScore       float64              `json:"ai_score"`
}

type SubmissionGradeResult struct {
	SubmissionID uint    `json:"submission_id"`
	QuestionID   uint    `json:"question_id"`
	Score        float64 `json:"score"`
	Feedback     string  `json:"feedback"`
	Skipped      bool    `json:"skipped"`
	SkipReason   string  `json:"skip_reason,omitempty"`
	Error        string  `json:"error,omitempty"`
}

type GradeAttemptResult struct {
	AttemptID uint                    `json:"attempt_id"`
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	Graded    int                     `json:"graded"`
	Total     int                     `json:"total"`
	Results   []SubmissionGradeResult `json:"results"`
}

// ===== SERVICE INTERFACES =====

type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*QuestionView, error)
	GetQuestion(ctx context.Context, attemptID uint, index int, studentID string) (*QuestionView, error)
	SaveAnswer(ctx context.Context, attemptID uint, payload *AnswerPayload, studentID string) error
	Next(ctx context.Context, attemptID uint, req *NavigateRequest, studentID string) (*QuestionView, error)
	Previous(ctx context.Context, attemptID uint, req *NavigateRequest, studentID string) (*QuestionView, error)
	Complete(ctx context.Context, attemptID uint, studentID string) (*AttemptResult, error)
	GetStatus(ctx context.Context, attemptID uint, studentID string) (*AttemptStatusView, error)
	GetTimeRemaining(ctx context.Context, attemptID uint, studentID string) (int, error)
	ListByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*AttemptSummary, int64, error)
}

type GradingService interface {
	GradeAttempt(ctx context.Context, attemptID uint, req *GradeAttemptRequest) (*GradeAttemptResult, error)
}

type ExportService interface {
	ExportTestResults(ctx context.Context, testID uint, userID string) ([]byte, error)
}
