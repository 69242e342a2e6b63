package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.Attempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.db.WithContext(ctx).
		Preload("Test").
		Preload("Submissions").
		Preload("Submissions.Question").
		Preload("Submissions.Question.Options").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) Update(ctx context.Context, attempt *models.Attempt) error {
	return a.db.WithContext(ctx).Save(attempt).Error
}

func (a AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, studentID string, testID uint) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.db.WithContext(ctx).
		Where("student_id = ? AND test_id = ? AND status = ?", studentID, testID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) GetNextAttemptNumber(ctx context.Context, studentID string, testID uint) (int, error) {
	var max int
	if err := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("student_id = ? AND test_id = ?", studentID, testID).
		Select("COALESCE(MAX(attempt_number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (a AttemptPostgreSQL) CountFinished(ctx context.Context, studentID string, testID uint) (int, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("student_id = ? AND test_id = ? AND status <> ?", studentID, testID, models.AttemptInProgress).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (a AttemptPostgreSQL) GetByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	filters.StudentID = &studentID
	return a.list(ctx, filters)
}

func (a AttemptPostgreSQL) GetByTest(ctx context.Context, testID uint, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	filters.TestID = &testID
	return a.list(ctx, filters)
}

func (a AttemptPostgreSQL) list(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	var attempts []*models.Attempt
	var total int64

	// apply filters first
	query := a.db.WithContext(ctx).Model(&models.Attempt{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then pagination and sorting
	query = a.applyPaginationAndSort(query, filters)

	if err := query.Preload("Test").Preload("Student").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}

func (a AttemptPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "started_at", "score", "created_at":
	default:
		sortBy = "created_at"
	}
	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	query = query.Order(sortBy + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}

func (a AttemptPostgreSQL) CompleteInProgress(ctx context.Context, id uint, completedAt time.Time, score float64) (bool, error) {
	res := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND status = ?", id, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       models.AttemptCompleted,
			"completed_at": completedAt,
			"score":        score,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (a AttemptPostgreSQL) MarkAIReviewed(ctx context.Context, id uint, aiScore float64) (bool, error) {
	res := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND status = ?", id, models.AttemptCompleted).
		Updates(map[string]interface{}{
			"status":   models.AttemptAIReviewed,
			"ai_score": aiScore,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
