package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).
		Preload("Options").
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	var questions []*models.Question
	if len(ids) == 0 {
		return questions, nil
	}
	if err := q.db.WithContext(ctx).
		Preload("Options").
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}
