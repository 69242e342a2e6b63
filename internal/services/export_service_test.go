package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newExportFixture() (*fakeRepo, ExportService) {
	repo := newFakeRepo()
	repo.addUser(&models.User{ID: studentID, FullName: "Student One", Role: models.RoleStudent})
	repo.addUser(&models.User{ID: teacherID, FullName: "Teacher", Role: models.RoleTeacher})
	repo.addUser(&models.User{ID: "other-teacher", FullName: "Other Teacher", Role: models.RoleTeacher})
	repo.addUser(&models.User{ID: "admin-1", FullName: "Admin", Role: models.RoleAdmin})

	repo.addTest(&models.Test{
		ID: testID, Title: "Networking basics", Duration: 30, IsOpen: true,
		MaxAttempts: 1, GroupID: groupID, CreatedBy: teacherID,
		Questions: []models.Question{
			{ID: 1, TestID: testID, Type: models.SingleChoice, Position: 1, Score: 2},
			{ID: 2, TestID: testID, Type: models.FreeText, Position: 2, Score: 5},
		},
	})

	started := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	completed := started.Add(25 * time.Minute)
	repo.attempts[1] = &models.Attempt{
		ID: 1, TestID: testID, StudentID: studentID, AttemptNumber: 1,
		Status: models.AttemptAIReviewed, StartedAt: started, CompletedAt: &completed,
		Score: 2, AIScore: 4,
	}
	repo.nextAttemptID = 1

	return repo, NewExportService(repo, testLogger())
}

func TestExportService_ExportTestResults(t *testing.T) {
	ctx := context.Background()

	t.Run("creator exports one row per attempt", func(t *testing.T) {
		_, service := newExportFixture()

		data, err := service.ExportTestResults(ctx, testID, teacherID)
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows("Results")
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "Student ID", rows[0][0])
		assert.Equal(t, "Max Score", rows[0][9])

		assert.Equal(t, studentID, rows[1][0])
		assert.Equal(t, "Student One", rows[1][1])
		assert.Equal(t, "ai_reviewed", rows[1][3])
		assert.Equal(t, "2", rows[1][6])
		assert.Equal(t, "4", rows[1][7])
		assert.Equal(t, "6", rows[1][8])
		assert.Equal(t, "7", rows[1][9])
	})

	t.Run("admin may export any test", func(t *testing.T) {
		_, service := newExportFixture()

		_, err := service.ExportTestResults(ctx, testID, "admin-1")
		require.NoError(t, err)
	})

	t.Run("non-owner teacher is denied", func(t *testing.T) {
		_, service := newExportFixture()

		_, err := service.ExportTestResults(ctx, testID, "other-teacher")
		require.Error(t, err)
		assert.True(t, IsAccessDenied(err))
	})

	t.Run("student is denied", func(t *testing.T) {
		_, service := newExportFixture()

		_, err := service.ExportTestResults(ctx, testID, studentID)
		require.Error(t, err)
		assert.True(t, IsAccessDenied(err))
	})

	t.Run("missing test is not found", func(t *testing.T) {
		_, service := newExportFixture()

		_, err := service.ExportTestResults(ctx, 999, teacherID)
		require.ErrorIs(t, err, ErrTestNotFound)
	})
}
