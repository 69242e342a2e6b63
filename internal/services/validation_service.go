package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

// AccessValidator centralizes the role, ownership, and availability checks
// every mutating attempt operation runs before touching state. Each check
// fails fast with a typed error.
type AccessValidator struct {
	repo repositories.Repository
}

func NewAccessValidator(repo repositories.Repository) *AccessValidator {
	return &AccessValidator{
		repo: repo,
	}
}

// EnsureStudentRole loads the caller and fails unless they are a student.
func (v *AccessValidator) EnsureStudentRole(ctx context.Context, userID string) (*models.User, error) {
	user, err := v.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Role != models.RoleStudent {
		return nil, NewPermissionError(userID, 0, "test", "take", "caller is not a student")
	}
	return user, nil
}

// ValidateStudentTestAccess checks the test belongs to an active, already
// started group the student is a member of.
func (v *AccessValidator) ValidateStudentTestAccess(ctx context.Context, studentID string, test *models.Test) error {
	hasAccess, err := v.repo.User().HasGroupAccess(ctx, studentID, test.GroupID)
	if err != nil {
		return fmt.Errorf("failed to check group access: %w", err)
	}
	if !hasAccess {
		return NewPermissionError(studentID, test.ID, "test", "take", "student has no access to the test's group")
	}
	return nil
}

// ValidateAttemptOwnership fails unless the attempt belongs to the student.
func (v *AccessValidator) ValidateAttemptOwnership(attempt *models.Attempt, studentID string) error {
	if attempt.StudentID != studentID {
		return NewPermissionError(studentID, attempt.ID, "attempt", "access", "not owned by student")
	}
	return nil
}

// ValidateTestAvailability checks the test can be taken right now: open,
// inside its time window, under the attempt limit, and non-empty.
func (v *AccessValidator) ValidateTestAvailability(ctx context.Context, test *models.Test, studentID string) error {
	if !test.IsOpen {
		return ErrTestClosed
	}

	now := time.Now()
	if test.StartTime != nil && now.Before(*test.StartTime) {
		return ErrTestNotStarted
	}
	if test.EndTime != nil && now.After(*test.EndTime) {
		return ErrTestEnded
	}

	finished, err := v.repo.Attempt().CountFinished(ctx, studentID, test.ID)
	if err != nil {
		return fmt.Errorf("failed to count attempts: %w", err)
	}
	if finished >= test.MaxAttempts {
		return ErrAttemptLimitReached
	}

	if len(test.Questions) == 0 {
		return ErrTestNoQuestions
	}

	return nil
}

// IsAttemptExpired reports whether the attempt's time box has elapsed.
// Duration is the test duration in minutes.
func IsAttemptExpired(attempt *models.Attempt, duration int) bool {
	return time.Now().After(attempt.Deadline(duration))
}

// TimeRemaining returns the seconds left in the attempt, floored at zero.
func TimeRemaining(attempt *models.Attempt, duration int) int {
	remaining := int(time.Until(attempt.Deadline(duration)).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
