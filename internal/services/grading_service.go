package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/ai"
	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type gradingService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *utils.Validator
	registry       *ai.Registry
	publisher      events.EventPublisher
	defaultService string
	timeout        time.Duration
}

func NewGradingService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	registry *ai.Registry,
	publisher events.EventPublisher,
	defaultService string,
	timeout time.Duration,
) GradingService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &gradingService{
		repo:           repo,
		logger:         logger,
		validator:      validator,
		registry:       registry,
		publisher:      publisher,
		defaultService: defaultService,
		timeout:        timeout,
	}
}

// gradeOutcome is one fan-out task's result before persistence.
type gradeOutcome struct {
	submission *models.Submission
	score      int
	feedback   string
	err        error
}

func (s *gradingService) GradeAttempt(ctx context.Context, attemptID uint, req *GradeAttemptRequest) (*GradeAttemptResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	serviceName := req.AIService
	if serviceName == "" {
		serviceName = s.defaultService
	}

	s.logger.Info("Dispatching AI grading",
		"attempt_id", attemptID,
		"ai_service", serviceName)

	provider, ok := s.registry.Find(serviceName)
	if !ok {
		return nil, ErrUnsupportedAIService
	}

	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.Status == models.AttemptInProgress {
		return nil, ErrAttemptNotActive
	}

	result := &GradeAttemptResult{
		AttemptID: attemptID,
		Results:   make([]SubmissionGradeResult, 0, len(attempt.Submissions)),
	}

	// Split the attempt's submissions into dispatchable tasks and skips.
	// Choice types were scored at completion. An already AI-graded
	// submission is skipped and never re-scored here; the one sanctioned
	// re-entry is the RegradeRequested flag set by the review flow, which
	// is cleared again once the regrade lands.
	var pending []*models.Submission
	for i := range attempt.Submissions {
		submission := &attempt.Submissions[i]
		if submission.Question.Type.IsChoice() {
			result.Results = append(result.Results, SubmissionGradeResult{
				SubmissionID: submission.ID,
				QuestionID:   submission.QuestionID,
				Score:        submission.Score,
				Skipped:      true,
				SkipReason:   "auto-gradable",
			})
			continue
		}
		if submission.AIGraded && !submission.RegradeRequested {
			result.Results = append(result.Results, SubmissionGradeResult{
				SubmissionID: submission.ID,
				QuestionID:   submission.QuestionID,
				Score:        submission.Score,
				Skipped:      true,
				SkipReason:   "already graded",
			})
			continue
		}
		pending = append(pending, submission)
	}

	result.Total = len(pending)
	if len(pending) == 0 {
		result.Success = true
		result.Message = "no submissions to grade"
		return result, nil
	}

	outcomes := s.gradeConcurrently(ctx, provider, req.APIKey, pending)

	// Persist every outcome in one pass. A failed task still lands as a
	// zero-score result so one provider error cannot block the batch.
	updated := make([]*models.Submission, 0, len(outcomes))
	for _, outcome := range outcomes {
		submission := outcome.submission
		submission.Score = float64(outcome.score)
		feedback := outcome.feedback
		submission.Feedback = &feedback
		submission.AIGraded = true
		submission.RegradeRequested = false
		updated = append(updated, submission)

		gradeResult := SubmissionGradeResult{
			SubmissionID: submission.ID,
			QuestionID:   submission.QuestionID,
			Score:        submission.Score,
			Feedback:     feedback,
		}
		if outcome.err != nil {
			gradeResult.Error = outcome.err.Error()
		} else {
			result.Graded++
		}
		result.Results = append(result.Results, gradeResult)
	}

	if err := s.repo.Submission().UpdateBatch(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to persist grading results: %w", err)
	}

	aiScore := s.promoteToAIReviewed(ctx, attempt)

	result.Success = true
	result.Message = fmt.Sprintf("graded %d of %d submissions", result.Graded, result.Total)

	s.logger.Info("AI grading finished",
		"attempt_id", attemptID,
		"graded", result.Graded,
		"total", result.Total)

	s.publishEvent(ctx, events.NewNotificationEvent(events.EventGradingCompleted, events.GradingCompletedEvent{
		AttemptID: attempt.ID,
		TestID:    attempt.TestID,
		StudentID: attempt.StudentID,
		AIService: serviceName,
		Graded:    result.Graded,
		Total:     result.Total,
		AIScore:   aiScore,
	}))

	return result, nil
}

// gradeConcurrently fans out one task per submission and blocks until every
// task has reported back.
func (s *gradingService) gradeConcurrently(ctx context.Context, provider ai.Provider, apiKey string, pending []*models.Submission) []gradeOutcome {
	var wg sync.WaitGroup
	results := make(chan gradeOutcome, len(pending))

	for _, submission := range pending {
		wg.Add(1)
		go func(submission *models.Submission) {
			defer wg.Done()
			results <- s.gradeOne(ctx, provider, apiKey, submission)
		}(submission)
	}

	wg.Wait()
	close(results)

	outcomes := make([]gradeOutcome, 0, len(pending))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *gradingService) gradeOne(ctx context.Context, provider ai.Provider, apiKey string, submission *models.Submission) gradeOutcome {
	question := &submission.Question
	maxScore := question.Score

	answer := ""
	if submission.AnswerText != nil {
		answer = *submission.AnswerText
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := ai.BuildGradingPrompt(question, answer, maxScore)
	raw, err := provider.Send(callCtx, prompt, apiKey)
	if err != nil {
		s.logger.Warn("Grading task failed, recording zero score",
			"submission_id", submission.ID,
			"question_id", submission.QuestionID,
			"error", err)
		return gradeOutcome{
			submission: submission,
			score:      0,
			feedback:   fmt.Sprintf("Automatic grading failed: %s", err.Error()),
			err:        err,
		}
	}

	score, feedback := ai.ParseGradeResponse(raw, maxScore)
	return gradeOutcome{
		submission: submission,
		score:      score,
		feedback:   feedback,
	}
}

// promoteToAIReviewed sums the subjective scores and promotes the attempt
// from completed to ai_reviewed. The compare-and-set never downgrades an
// attempt a teacher has already reviewed.
func (s *gradingService) promoteToAIReviewed(ctx context.Context, attempt *models.Attempt) float64 {
	full, err := s.repo.Attempt().GetByIDWithDetails(ctx, attempt.ID)
	if err != nil {
		s.logger.Error("Failed to reload attempt for AI review promotion",
			"attempt_id", attempt.ID,
			"error", err)
		return 0
	}

	aiScore := 0.0
	for i := range full.Submissions {
		if full.Submissions[i].Question.Type.IsSubjective() && full.Submissions[i].AIGraded {
			aiScore += full.Submissions[i].Score
		}
	}

	promoted, err := s.repo.Attempt().MarkAIReviewed(ctx, attempt.ID, aiScore)
	if err != nil {
		s.logger.Error("Failed to mark attempt AI reviewed",
			"attempt_id", attempt.ID,
			"error", err)
		return aiScore
	}
	if promoted {
		s.logger.Info("Attempt promoted to AI reviewed",
			"attempt_id", attempt.ID,
			"ai_score", aiScore)
	}
	return aiScore
}

func (s *gradingService) publishEvent(ctx context.Context, event *events.NotificationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish notification event",
			"event_type", event.Type,
			"error", err)
	}
}
