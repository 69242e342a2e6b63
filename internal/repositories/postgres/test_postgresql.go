package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestPostgreSQL{db: db}
}

func (t TestPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	if err := t.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (t TestPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	if err := t.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Questions.Options").
		First(&test, id).Error; err != nil {
		return nil, err
	}
	test.ComputeTotals()
	return &test, nil
}
