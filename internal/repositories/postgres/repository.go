package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

// Repository is the gorm-backed aggregate. A transactional copy shares the
// same struct with db pointed at the open transaction.
type Repository struct {
	db *gorm.DB

	test       repositories.TestRepository
	question   repositories.QuestionRepository
	attempt    repositories.AttemptRepository
	submission repositories.SubmissionRepository
	user       repositories.UserRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		test:       NewTestPostgreSQL(db),
		question:   NewQuestionPostgreSQL(db),
		attempt:    NewAttemptPostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
		user:       NewUserPostgreSQL(db),
	}
}

func (r *Repository) Test() repositories.TestRepository             { return r.test }
func (r *Repository) Question() repositories.QuestionRepository     { return r.question }
func (r *Repository) Attempt() repositories.AttemptRepository       { return r.attempt }
func (r *Repository) Submission() repositories.SubmissionRepository { return r.submission }
func (r *Repository) User() repositories.UserRepository             { return r.user }

func (r *Repository) Begin(ctx context.Context) (repositories.Repository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return NewRepository(tx), nil
}

func (r *Repository) Commit(ctx context.Context) error {
	return r.db.Commit().Error
}

func (r *Repository) Rollback(ctx context.Context) error {
	return r.db.Rollback().Error
}
