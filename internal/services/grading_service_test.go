package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/ai"
	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider answers grading prompts from a script. A prompt carrying
// the student answer "needs more time" blocks until the call context expires,
// standing in for a hung provider.
type scriptedProvider struct {
	name string
}

func (p *scriptedProvider) Supports(name string) bool {
	return strings.EqualFold(name, p.name)
}

func (p *scriptedProvider) Send(ctx context.Context, prompt, apiKey string) (string, error) {
	if strings.Contains(prompt, "needs more time") {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "Score: 4\nFeedback: Solid answer.", nil
}

func newGradingFixture() (*fakeRepo, *events.MockEventPublisher, GradingService) {
	repo := newFakeRepo()
	repo.addUser(&models.User{ID: studentID, FullName: "Student One", Role: models.RoleStudent})

	questions := []models.Question{
		{ID: 6, TestID: testID, Text: "Pick one", Type: models.SingleChoice, Position: 6, Score: 2,
			Options: []models.Option{{ID: 61, QuestionID: 6, Text: "A", IsCorrect: true}}},
		{ID: 7, TestID: testID, Text: "Already reviewed", Type: models.FreeText, Position: 7, Score: 5},
	}
	for i := uint(1); i <= 5; i++ {
		questions = append(questions, models.Question{
			ID: i, TestID: testID, Text: "Explain", Type: models.FreeText, Position: int(i), Score: 5,
		})
	}
	repo.addTest(&models.Test{
		ID: testID, Title: "Essay exam", Duration: 30, IsOpen: true,
		MaxAttempts: 1, GroupID: groupID, Questions: questions,
	})

	now := time.Now()
	repo.attempts[1] = &models.Attempt{
		ID: 1, TestID: testID, StudentID: studentID, AttemptNumber: 1,
		Status: models.AttemptCompleted, StartedAt: now.Add(-20 * time.Minute),
		CompletedAt: &now, Score: 2,
	}
	repo.nextAttemptID = 1

	answers := map[uint]string{1: "first", 2: "second", 3: "needs more time", 4: "fourth", 5: "fifth"}
	for questionID := uint(1); questionID <= 5; questionID++ {
		answer := answers[questionID]
		repo.submissions[questionID] = &models.Submission{
			ID: questionID, AttemptID: 1, QuestionID: questionID, AnswerText: &answer,
		}
	}
	choiceSub := &models.Submission{ID: 6, AttemptID: 1, QuestionID: 6, Score: 2}
	_ = choiceSub.SetSelectedOptions([]uint{61})
	repo.submissions[6] = choiceSub

	reviewed := "earlier answer"
	feedback := "Reviewed already."
	repo.submissions[7] = &models.Submission{
		ID: 7, AttemptID: 1, QuestionID: 7, AnswerText: &reviewed,
		Score: 3, Feedback: &feedback, AIGraded: true,
	}
	repo.nextSubmissionID = 7

	publisher := events.NewMockEventPublisher(testLogger())
	registry := ai.NewRegistry(&scriptedProvider{name: "scripted"})
	service := NewGradingService(repo, testLogger(), utils.NewValidator(), registry, publisher, "scripted", 50*time.Millisecond)
	return repo, publisher, service
}

func gradeRequest() *GradeAttemptRequest {
	return &GradeAttemptRequest{AIService: "scripted", APIKey: "key-123"}
}

func TestGradingService_GradeAttempt(t *testing.T) {
	ctx := context.Background()

	t.Run("grades every pending subjective submission", func(t *testing.T) {
		repo, publisher, service := newGradingFixture()

		result, err := service.GradeAttempt(ctx, 1, gradeRequest())
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, 5, result.Total)
		assert.Equal(t, 4, result.Graded)
		assert.Equal(t, "graded 4 of 5 submissions", result.Message)
		require.Len(t, result.Results, 7)

		var graded, skipped, failed int
		for _, r := range result.Results {
			switch {
			case r.Skipped:
				skipped++
			case r.Error != "":
				failed++
				assert.Equal(t, 0.0, r.Score)
				assert.Contains(t, r.Feedback, "Automatic grading failed")
			default:
				graded++
				assert.Equal(t, 4.0, r.Score)
				assert.Equal(t, "Solid answer.", r.Feedback)
			}
		}
		assert.Equal(t, 4, graded)
		assert.Equal(t, 2, skipped)
		assert.Equal(t, 1, failed)

		// The hung task still lands as a persisted zero-score grade.
		timedOut := repo.submissions[3]
		assert.True(t, timedOut.AIGraded)
		assert.Equal(t, 0.0, timedOut.Score)

		attempt := repo.attempts[1]
		assert.Equal(t, models.AttemptAIReviewed, attempt.Status)
		assert.Equal(t, 19.0, attempt.AIScore) // 4*4 graded + 3 prior + 0 failed
		assert.Equal(t, 2.0, attempt.Score)    // objective part untouched

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventGradingCompleted, published[0].Type)
		payload, ok := published[0].Data.(events.GradingCompletedEvent)
		require.True(t, ok)
		assert.Equal(t, 4, payload.Graded)
		assert.Equal(t, 19.0, payload.AIScore)
	})

	t.Run("skips already graded and choice submissions", func(t *testing.T) {
		_, _, service := newGradingFixture()

		result, err := service.GradeAttempt(ctx, 1, gradeRequest())
		require.NoError(t, err)

		reasons := make(map[uint]string)
		for _, r := range result.Results {
			if r.Skipped {
				reasons[r.QuestionID] = r.SkipReason
			}
		}
		assert.Equal(t, "auto-gradable", reasons[6])
		assert.Equal(t, "already graded", reasons[7])
	})

	t.Run("second run has nothing left to grade", func(t *testing.T) {
		_, _, service := newGradingFixture()

		_, err := service.GradeAttempt(ctx, 1, gradeRequest())
		require.NoError(t, err)

		result, err := service.GradeAttempt(ctx, 1, gradeRequest())
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 0, result.Total)
		assert.Equal(t, "no submissions to grade", result.Message)
	})

	t.Run("regrade request re-dispatches a graded submission", func(t *testing.T) {
		repo, _, service := newGradingFixture()
		repo.submissions[7].RegradeRequested = true

		result, err := service.GradeAttempt(ctx, 1, gradeRequest())
		require.NoError(t, err)
		assert.Equal(t, 6, result.Total)

		regraded := repo.submissions[7]
		assert.False(t, regraded.RegradeRequested)
		assert.Equal(t, 4.0, regraded.Score)
	})

	t.Run("unknown provider name fails validation", func(t *testing.T) {
		_, _, service := newGradingFixture()

		_, err := service.GradeAttempt(ctx, 1, &GradeAttemptRequest{AIService: "claude", APIKey: "key"})
		require.ErrorIs(t, err, ErrUnsupportedAIService)
		assert.True(t, IsValidation(err))
	})

	t.Run("in-progress attempt cannot be graded", func(t *testing.T) {
		repo, _, service := newGradingFixture()
		repo.attempts[1].Status = models.AttemptInProgress

		_, err := service.GradeAttempt(ctx, 1, gradeRequest())
		require.ErrorIs(t, err, ErrAttemptNotActive)
		assert.True(t, IsStateConflict(err))
	})

	t.Run("missing attempt is not found", func(t *testing.T) {
		_, _, service := newGradingFixture()

		_, err := service.GradeAttempt(ctx, 999, gradeRequest())
		require.ErrorIs(t, err, ErrAttemptNotFound)
	})

	t.Run("empty service name falls back to the configured provider", func(t *testing.T) {
		_, _, service := newGradingFixture()

		result, err := service.GradeAttempt(ctx, 1, &GradeAttemptRequest{APIKey: "key"})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 5, result.Total)
	})
}
