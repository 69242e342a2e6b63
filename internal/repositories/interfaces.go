package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	Status    models.AttemptStatus `json:"status"`
	TestID    *uint                `json:"test_id"`
	StudentID *string              `json:"student_id"`
	DateFrom  *time.Time           `json:"date_from"`
	DateTo    *time.Time           `json:"date_to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "created_at", "started_at", "score"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORY INTERFACES =====

type TestRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Test, error)
	// GetByIDWithQuestions loads the test with its question pool and
	// options, questions ordered by position.
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error)
}

type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	// GetByIDs loads questions with options; callers re-order per the
	// attempt's pinned list themselves.
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
}

type AttemptRepository interface {
	// Create inserts a new attempt. A partial unique index allows at most
	// one in_progress attempt per (student, test), so a concurrent start
	// surfaces as a duplicate-key error.
	Create(ctx context.Context, attempt *models.Attempt) error
	GetByID(ctx context.Context, id uint) (*models.Attempt, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Attempt, error) // include test, submissions
	Update(ctx context.Context, attempt *models.Attempt) error

	GetActiveAttempt(ctx context.Context, studentID string, testID uint) (*models.Attempt, error)
	GetNextAttemptNumber(ctx context.Context, studentID string, testID uint) (int, error)
	CountFinished(ctx context.Context, studentID string, testID uint) (int, error)

	GetByStudent(ctx context.Context, studentID string, filters AttemptFilters) ([]*models.Attempt, int64, error)
	GetByTest(ctx context.Context, testID uint, filters AttemptFilters) ([]*models.Attempt, int64, error)

	// CompleteInProgress transitions in_progress -> completed with a
	// compare-and-set update and reports whether this caller won the race.
	CompleteInProgress(ctx context.Context, id uint, completedAt time.Time, score float64) (bool, error)
	// MarkAIReviewed transitions completed -> ai_reviewed, recording the AI
	// score, again compare-and-set so a teacher review is never downgraded.
	MarkAIReviewed(ctx context.Context, id uint, aiScore float64) (bool, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	UpdateBatch(ctx context.Context, submissions []*models.Submission) error

	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.Submission, error)
	GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.Submission, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	// HasGroupAccess reports whether the student belongs to the group and
	// the group is active and not starting in the future.
	HasGroupAccess(ctx context.Context, studentID string, groupID uint) (bool, error)
}

// Repository aggregates all repositories behind one handle so services can
// take a single dependency.
type Repository interface {
	Test() TestRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Submission() SubmissionRepository
	User() UserRepository
}

// TransactionRepository is implemented by repositories that can open a
// transactional view of themselves.
type TransactionRepository interface {
	Repository
	Begin(ctx context.Context) (Repository, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// IsNotFoundError reports whether the error is the driver's missing-record
// condition.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether the error is a unique-constraint
// violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
