package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	access    *AccessValidator
	selector  *QuestionSelector
	publisher events.EventPublisher
	cache     cache.CacheService
}

func NewAttemptService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	selector *QuestionSelector,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		access:    NewAccessValidator(repo),
		selector:  selector,
		publisher: publisher,
		cache:     cacheService,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*QuestionView, error) {
	s.logger.Info("Starting attempt",
		"test_id", req.TestID,
		"student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.access.EnsureStudentRole(ctx, studentID); err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByIDWithQuestions(ctx, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if err := s.access.ValidateStudentTestAccess(ctx, studentID, test); err != nil {
		return nil, err
	}

	// An in-progress attempt resumes instead of starting a new one. An
	// expired one is finalized first, then the availability check decides
	// whether another attempt may start.
	active, err := s.repo.Attempt().GetActiveAttempt(ctx, studentID, test.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active attempt: %w", err)
	}
	if active != nil {
		if !IsAttemptExpired(active, test.Duration) {
			s.logger.Info("Resuming existing attempt", "attempt_id", active.ID)
			return s.resumeView(ctx, active, test)
		}
		if _, err := s.finalizeAttempt(ctx, active, test, true); err != nil {
			return nil, fmt.Errorf("failed to finalize expired attempt: %w", err)
		}
	}

	if err := s.access.ValidateTestAvailability(ctx, test, studentID); err != nil {
		return nil, err
	}

	txRepo, err := s.repo.(repositories.TransactionRepository).Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			txRepo.(repositories.TransactionRepository).Rollback(ctx)
		}
	}()

	number, err := txRepo.Attempt().GetNextAttemptNumber(ctx, studentID, test.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get next attempt number: %w", err)
	}

	attempt := &models.Attempt{
		TestID:        test.ID,
		StudentID:     studentID,
		AttemptNumber: number,
		Status:        models.AttemptInProgress,
		StartedAt:     time.Now(),
	}
	// The question subset is chosen once here and pinned for the life of
	// the attempt.
	if err = attempt.SetPinnedQuestionIDs(s.selector.SelectForAttempt(test)); err != nil {
		return nil, fmt.Errorf("failed to pin question subset: %w", err)
	}

	if err = txRepo.Attempt().Create(ctx, attempt); err != nil {
		// A duplicate-key violation on the active-attempt index means a
		// concurrent Start won the race between our check and this insert.
		// Resume the winner's attempt instead of failing the request.
		if repositories.IsDuplicateError(err) {
			s.logger.Info("Concurrent start detected, resuming winner",
				"test_id", test.ID,
				"student_id", studentID)
			winner, lookupErr := s.repo.Attempt().GetActiveAttempt(ctx, studentID, test.ID)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to load concurrently started attempt: %w", lookupErr)
			}
			if winner == nil {
				return nil, ErrConflict
			}
			return s.resumeView(ctx, winner, test)
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	if err = txRepo.(repositories.TransactionRepository).Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"test_id", test.ID,
		"student_id", studentID,
		"attempt_number", number)

	s.publishEvent(ctx, events.NewNotificationEvent(events.EventAttemptStarted, events.AttemptStartedEvent{
		AttemptID:     attempt.ID,
		TestID:        test.ID,
		TestTitle:     test.Title,
		StudentID:     studentID,
		AttemptNumber: number,
		StartedAt:     attempt.StartedAt,
		Duration:      test.Duration,
	}))

	return s.buildQuestionView(ctx, attempt, test, 1)
}

func (s *attemptService) GetQuestion(ctx context.Context, attemptID uint, index int, studentID string) (*QuestionView, error) {
	attempt, test, err := s.loadOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	return s.buildQuestionView(ctx, attempt, test, index)
}

func (s *attemptService) SaveAnswer(ctx context.Context, attemptID uint, payload *AnswerPayload, studentID string) error {
	if err := s.validator.Validate(payload); err != nil {
		return err
	}

	attempt, test, err := s.loadOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return err
	}

	return s.recordAnswer(ctx, attempt, test, payload)
}

func (s *attemptService) Next(ctx context.Context, attemptID uint, req *NavigateRequest, studentID string) (*QuestionView, error) {
	return s.navigate(ctx, attemptID, req, studentID, 1)
}

func (s *attemptService) Previous(ctx context.Context, attemptID uint, req *NavigateRequest, studentID string) (*QuestionView, error) {
	return s.navigate(ctx, attemptID, req, studentID, -1)
}

func (s *attemptService) navigate(ctx context.Context, attemptID uint, req *NavigateRequest, studentID string, step int) (*QuestionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, test, err := s.loadOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}

	pinned, err := attempt.PinnedQuestionIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to decode pinned questions: %w", err)
	}
	if req.Current < 1 || req.Current > len(pinned) {
		return nil, ErrQuestionIndexOutOfRange
	}

	if req.Answer != nil {
		if err := s.validator.Validate(req.Answer); err != nil {
			return nil, err
		}
		if err := s.recordAnswer(ctx, attempt, test, req.Answer); err != nil {
			return nil, err
		}
	}

	target := req.Current + step
	if target < 1 {
		return nil, ErrAlreadyAtFirstQuestion
	}
	if target > len(pinned) {
		return nil, ErrAlreadyAtLastQuestion
	}

	return s.buildQuestionView(ctx, attempt, test, target)
}

func (s *attemptService) Complete(ctx context.Context, attemptID uint, studentID string) (*AttemptResult, error) {
	s.logger.Info("Completing attempt", "attempt_id", attemptID, "student_id", studentID)

	attempt, err := s.getAttemptWithDetails(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.access.ValidateAttemptOwnership(attempt, studentID); err != nil {
		return nil, err
	}

	// Completing twice never re-scores: terminal attempts just report their
	// stored result.
	if attempt.Status.IsTerminal() {
		return s.buildAttemptResult(ctx, attempt)
	}

	expired := IsAttemptExpired(attempt, attempt.Test.Duration)
	attempt, err = s.finalizeAttempt(ctx, attempt, &attempt.Test, expired)
	if err != nil {
		return nil, err
	}

	return s.buildAttemptResult(ctx, attempt)
}

func (s *attemptService) GetStatus(ctx context.Context, attemptID uint, studentID string) (*AttemptStatusView, error) {
	attempt, err := s.getAttemptWithDetails(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.access.ValidateAttemptOwnership(attempt, studentID); err != nil {
		return nil, err
	}

	expired := IsAttemptExpired(attempt, attempt.Test.Duration)

	// Lazy expiry enforcement: an expired in-progress attempt is completed
	// as a side effect of the read, so no background sweep is needed.
	if expired && attempt.Status == models.AttemptInProgress {
		attempt, err = s.finalizeAttempt(ctx, attempt, &attempt.Test, true)
		if err != nil {
			return nil, fmt.Errorf("failed to finalize expired attempt: %w", err)
		}
	}

	pinned, err := attempt.PinnedQuestionIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to decode pinned questions: %w", err)
	}

	answeredByQuestion := make(map[uint]bool, len(attempt.Submissions))
	for i := range attempt.Submissions {
		if attempt.Submissions[i].HasAnswer() {
			answeredByQuestion[attempt.Submissions[i].QuestionID] = true
		}
	}

	answered := make([]bool, len(pinned))
	answeredCount := 0
	for i, id := range pinned {
		if answeredByQuestion[id] {
			answered[i] = true
			answeredCount++
		}
	}

	remaining := 0
	if !expired && attempt.Status == models.AttemptInProgress {
		remaining = TimeRemaining(attempt, attempt.Test.Duration)
	}

	return &AttemptStatusView{
		AttemptID:     attempt.ID,
		Status:        attempt.Status,
		AnsweredCount: answeredCount,
		Total:         len(pinned),
		Answered:      answered,
		TimeRemaining: remaining,
		IsExpired:     expired,
		IsCompleted:   attempt.Status.IsTerminal(),
	}, nil
}

func (s *attemptService) GetTimeRemaining(ctx context.Context, attemptID uint, studentID string) (int, error) {
	attempt, test, err := s.loadOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return 0, err
	}
	if attempt.Status.IsTerminal() {
		return 0, nil
	}
	return TimeRemaining(attempt, test.Duration), nil
}

func (s *attemptService) ListByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*AttemptSummary, int64, error) {
	attempts, total, err := s.repo.Attempt().GetByStudent(ctx, studentID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	summaries := make([]*AttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		summaries = append(summaries, &AttemptSummary{
			ID:            attempt.ID,
			TestID:        attempt.TestID,
			TestTitle:     attempt.Test.Title,
			AttemptNumber: attempt.AttemptNumber,
			Status:        attempt.Status,
			StartedAt:     attempt.StartedAt,
			CompletedAt:   attempt.CompletedAt,
			Score:         attempt.Score,
			AIScore:       attempt.AIScore,
		})
	}
	return summaries, total, nil
}
