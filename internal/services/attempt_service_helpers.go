package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/jinzhu/copier"
)

// ===== LOADING HELPERS =====

func (s *attemptService) getAttempt(ctx context.Context, attemptID uint) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return attempt, nil
}

func (s *attemptService) getAttemptWithDetails(ctx context.Context, attemptID uint) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return attempt, nil
}

// loadOwnedAttempt fetches the attempt and its test, enforcing ownership.
func (s *attemptService) loadOwnedAttempt(ctx context.Context, attemptID uint, studentID string) (*models.Attempt, *models.Test, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.access.ValidateAttemptOwnership(attempt, studentID); err != nil {
		return nil, nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, attempt.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrTestNotFound
		}
		return nil, nil, fmt.Errorf("failed to get test: %w", err)
	}
	return attempt, test, nil
}

// ===== VIEW BUILDING =====

// resumeView returns the view for the attempt's resume point: the first
// unanswered question, or the last question when everything is answered.
func (s *attemptService) resumeView(ctx context.Context, attempt *models.Attempt, test *models.Test) (*QuestionView, error) {
	pinned, err := attempt.PinnedQuestionIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to decode pinned questions: %w", err)
	}

	submissions, err := s.repo.Submission().GetByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	return s.buildQuestionView(ctx, attempt, test, ResumeIndex(pinned, submissions))
}

func (s *attemptService) buildQuestionView(ctx context.Context, attempt *models.Attempt, test *models.Test, index int) (*QuestionView, error) {
	pinned, err := attempt.PinnedQuestionIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to decode pinned questions: %w", err)
	}
	if index < 1 || index > len(pinned) {
		return nil, ErrQuestionIndexOutOfRange
	}

	questionData, err := s.questionData(ctx, pinned[index-1])
	if err != nil {
		return nil, err
	}

	view := &QuestionView{
		AttemptID:     attempt.ID,
		Index:         index,
		Total:         len(pinned),
		TimeRemaining: TimeRemaining(attempt, test.Duration),
		Question:      *questionData,
		IsFirst:       index == 1,
		IsLast:        index == len(pinned),
	}

	submission, err := s.repo.Submission().GetByAttemptAndQuestion(ctx, attempt.ID, questionData.ID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission != nil && submission.HasAnswer() {
		selected, err := submission.SelectedOptions()
		if err != nil {
			return nil, fmt.Errorf("failed to decode selected options: %w", err)
		}
		view.Answer = &AnswerView{
			SelectedOptionIDs: selected,
			AnswerText:        submission.AnswerText,
		}
	}

	return view, nil
}

// questionData loads a question's presentation view, going through the cache
// so repeated navigation over the same question skips the datastore. Correct
// answers never enter the cached shape.
func (s *attemptService) questionData(ctx context.Context, questionID uint) (*QuestionData, error) {
	cacheKey := fmt.Sprintf("question:%d", questionID)
	if s.cache != nil {
		var cached QuestionData
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	var questionData QuestionData
	if err := copier.Copy(&questionData, question); err != nil {
		return nil, fmt.Errorf("failed to map question: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, &questionData, 5*time.Minute); err != nil {
			s.logger.Warn("Failed to cache question", "question_id", questionID, "error", err)
		}
	}

	return &questionData, nil
}

func (s *attemptService) buildAttemptResult(ctx context.Context, attempt *models.Attempt) (*AttemptResult, error) {
	pinned, err := attempt.PinnedQuestionIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to decode pinned questions: %w", err)
	}

	questions, err := s.repo.Question().GetByIDs(ctx, pinned)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	questionByID := make(map[uint]*models.Question, len(questions))
	totalScore := 0
	for _, q := range questions {
		questionByID[q.ID] = q
		totalScore += q.Score
	}

	submissionByQuestion := make(map[uint]*models.Submission, len(attempt.Submissions))
	for i := range attempt.Submissions {
		submissionByQuestion[attempt.Submissions[i].QuestionID] = &attempt.Submissions[i]
	}

	breakdown := make([]QuestionResult, 0, len(pinned))
	pendingReview := 0
	for i, questionID := range pinned {
		question := questionByID[questionID]
		if question == nil {
			continue
		}

		result := QuestionResult{
			QuestionID: questionID,
			Index:      i + 1,
			Type:       question.Type,
			MaxScore:   question.Score,
		}

		if submission, ok := submissionByQuestion[questionID]; ok {
			result.Answered = submission.HasAnswer()
			result.Score = submission.Score
			result.AIGraded = submission.AIGraded
			result.Feedback = submission.Feedback

			if result.Answered && question.Type.IsSubjective() && !submission.AIGraded {
				pendingReview++
			}
		}

		breakdown = append(breakdown, result)
	}

	return &AttemptResult{
		AttemptID:     attempt.ID,
		Status:        attempt.Status,
		Score:         attempt.Score,
		AIScore:       attempt.AIScore,
		TotalScore:    totalScore,
		CompletedAt:   attempt.CompletedAt,
		Breakdown:     breakdown,
		PendingReview: pendingReview,
	}, nil
}

// ===== ANSWER RECORDING =====

// recordAnswer upserts the submission for (attempt, question). The write is
// a full overwrite per the question's answer shape, so repeated saves are
// last-write-wins.
func (s *attemptService) recordAnswer(ctx context.Context, attempt *models.Attempt, test *models.Test, payload *AnswerPayload) error {
	if attempt.Status.IsTerminal() {
		return ErrAttemptAlreadyCompleted
	}
	if IsAttemptExpired(attempt, test.Duration) {
		return ErrAttemptExpired
	}

	pinned, err := attempt.PinnedQuestionIDs()
	if err != nil {
		return fmt.Errorf("failed to decode pinned questions: %w", err)
	}
	if !slices.Contains(pinned, payload.QuestionID) {
		return NewValidationError("question_id", "question is not part of this attempt", payload.QuestionID)
	}

	question, err := s.repo.Question().GetByID(ctx, payload.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	submission, err := s.repo.Submission().GetByAttemptAndQuestion(ctx, attempt.ID, question.ID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to get submission: %w", err)
	}

	created := false
	if submission == nil {
		submission = &models.Submission{
			AttemptID:  attempt.ID,
			QuestionID: question.ID,
		}
		created = true
	}

	if err := applyAnswer(submission, question, payload); err != nil {
		return err
	}

	if created {
		if err := s.repo.Submission().Create(ctx, submission); err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
	} else {
		if err := s.repo.Submission().Update(ctx, submission); err != nil {
			return fmt.Errorf("failed to update submission: %w", err)
		}
	}

	return nil
}

// applyAnswer writes the payload onto the submission in the single shape the
// question type allows, clearing the other shape.
func applyAnswer(submission *models.Submission, question *models.Question, payload *AnswerPayload) error {
	if question.Type.IsChoice() {
		if payload.AnswerText != nil && *payload.AnswerText != "" {
			return ErrMalformedAnswer
		}
		validOptions := make(map[uint]bool, len(question.Options))
		for _, o := range question.Options {
			validOptions[o.ID] = true
		}
		for _, id := range payload.SelectedOptionIDs {
			if !validOptions[id] {
				return ErrMalformedAnswer
			}
		}
		if err := submission.SetSelectedOptions(payload.SelectedOptionIDs); err != nil {
			return fmt.Errorf("failed to encode selected options: %w", err)
		}
		submission.AnswerText = nil
		return nil
	}

	if len(payload.SelectedOptionIDs) > 0 {
		return ErrMalformedAnswer
	}
	submission.AnswerText = payload.AnswerText
	submission.SelectedOptionIDs = nil
	return nil
}

// ===== COMPLETION =====

// finalizeAttempt runs objective grading and transitions the attempt to
// completed. The status transition is compare-and-set, so when two callers
// race only the winner scores and publishes; the loser just reloads.
func (s *attemptService) finalizeAttempt(ctx context.Context, attempt *models.Attempt, test *models.Test, expired bool) (*models.Attempt, error) {
	full, err := s.getAttemptWithDetails(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	if full.Status.IsTerminal() {
		return full, nil
	}

	var graded []*models.Submission
	total := 0.0
	for i := range full.Submissions {
		submission := &full.Submissions[i]
		if !submission.Question.Type.IsChoice() {
			continue
		}
		submission.Score = GradeChoiceSubmission(submission, &submission.Question)
		total += submission.Score
		graded = append(graded, submission)
	}

	won, err := s.repo.Attempt().CompleteInProgress(ctx, full.ID, time.Now(), total)
	if err != nil {
		return nil, fmt.Errorf("failed to complete attempt: %w", err)
	}
	if !won {
		return s.getAttemptWithDetails(ctx, attempt.ID)
	}

	if len(graded) > 0 {
		if err := s.repo.Submission().UpdateBatch(ctx, graded); err != nil {
			return nil, fmt.Errorf("failed to persist objective scores: %w", err)
		}
	}

	s.logger.Info("Attempt completed",
		"attempt_id", full.ID,
		"student_id", full.StudentID,
		"objective_score", total,
		"expired", expired)

	eventType := events.EventAttemptCompleted
	if expired {
		eventType = events.EventAttemptExpired
	}
	s.publishEvent(ctx, events.NewNotificationEvent(eventType, events.AttemptCompletedEvent{
		AttemptID:   full.ID,
		TestID:      full.TestID,
		TestTitle:   test.Title,
		StudentID:   full.StudentID,
		CompletedAt: time.Now(),
		Score:       total,
		Expired:     expired,
	}))

	return s.getAttemptWithDetails(ctx, attempt.ID)
}

// publishEvent sends a notification without letting a broker failure leak
// into the request path.
func (s *attemptService) publishEvent(ctx context.Context, event *events.NotificationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish notification event",
			"event_type", event.Type,
			"error", err)
	}
}
