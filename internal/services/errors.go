package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/exam-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Test specific errors
	ErrTestNotFound     = errors.New("test not found")
	ErrTestClosed       = errors.New("test is closed")
	ErrTestNotStarted   = errors.New("test has not started yet")
	ErrTestEnded        = errors.New("test has already ended")
	ErrTestNoQuestions  = errors.New("test has no questions")
	ErrTestAccessDenied = errors.New("access denied to test")

	// Question specific errors
	ErrQuestionNotFound        = errors.New("question not found")
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	ErrAlreadyAtFirstQuestion  = errors.New("already at first question")
	ErrAlreadyAtLastQuestion   = errors.New("already at last question")

	// Attempt specific errors
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAccessDenied     = errors.New("access denied to attempt")
	ErrAttemptNotActive        = errors.New("attempt is not active")
	ErrAttemptAlreadyCompleted = errors.New("attempt already completed")
	ErrAttemptLimitReached     = errors.New("maximum attempts reached")
	ErrAttemptExpired          = errors.New("attempt time has expired")

	// Submission/answer errors
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrMalformedAnswer    = errors.New("malformed answer payload")

	// Grading errors
	ErrUnsupportedAIService = errors.New("unsupported AI service")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsAccessDenied checks if error represents an access/ownership failure
func IsAccessDenied(err error) bool {
	if errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrTestAccessDenied) ||
		errors.Is(err, ErrAttemptAccessDenied) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsStateConflict checks if error represents a lifecycle/state conflict
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrTestClosed) ||
		errors.Is(err, ErrTestNotStarted) ||
		errors.Is(err, ErrTestEnded) ||
		errors.Is(err, ErrTestNoQuestions) ||
		errors.Is(err, ErrAttemptNotActive) ||
		errors.Is(err, ErrAttemptAlreadyCompleted) ||
		errors.Is(err, ErrAttemptLimitReached) ||
		errors.Is(err, ErrAttemptExpired)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrQuestionIndexOutOfRange) ||
		errors.Is(err, ErrAlreadyAtFirstQuestion) ||
		errors.Is(err, ErrAlreadyAtLastQuestion) ||
		errors.Is(err, ErrMalformedAnswer) ||
		errors.Is(err, ErrUnsupportedAIService) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}
