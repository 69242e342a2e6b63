package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportTestResults builds an xlsx sheet with every attempt of the test.
// Only the test's creator, a teacher, or an admin may export.
func (s *exportService) ExportTestResults(ctx context.Context, testID uint, userID string) ([]byte, error) {
	s.logger.Info("Exporting test results", "test_id", testID, "user_id", userID)

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	test, err := s.repo.Test().GetByIDWithQuestions(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if user.Role == models.RoleStudent || (user.Role == models.RoleTeacher && test.CreatedBy != userID) {
		return nil, NewPermissionError(userID, testID, "test", "export_results", "not owner or insufficient permissions")
	}

	attempts, _, err := s.repo.Attempt().GetByTest(ctx, testID, repositories.AttemptFilters{
		SortBy:    "started_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get test attempts: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Student ID", "Student Name", "Attempt", "Status", "Started At", "Completed At",
		"Objective Score", "AI Score", "Total Score", "Max Score",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range attempts {
		row := []interface{}{
			attempt.StudentID,
			attempt.Student.FullName,
			attempt.AttemptNumber,
			string(attempt.Status),
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
		}

		if attempt.CompletedAt != nil {
			row = append(row, attempt.CompletedAt.Format("2006-01-02 15:04:05"))
		} else {
			row = append(row, "")
		}

		row = append(row,
			attempt.Score,
			attempt.AIScore,
			attempt.Score+attempt.AIScore,
			test.TotalScore,
		)

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}
