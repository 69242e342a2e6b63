package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

func (s SubmissionPostgreSQL) Update(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).Save(submission).Error
}

func (s SubmissionPostgreSQL) UpdateBatch(ctx context.Context, submissions []*models.Submission) error {
	if len(submissions) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sub := range submissions {
			if err := tx.Save(sub).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s SubmissionPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	if err := s.db.WithContext(ctx).
		Preload("Question").
		Preload("Question.Options").
		Where("attempt_id = ?", attemptID).
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (s SubmissionPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}
