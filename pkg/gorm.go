package pkg

import (
	"fmt"

	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the exam schema. Group and membership tables
// are owned by the catalog service and deliberately left out.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Test{},
		&models.Question{},
		&models.Option{},
		&models.Attempt{},
		&models.Submission{},
	); err != nil {
		return err
	}

	// One in_progress attempt per (student, test). Partial indexes are not
	// expressible through gorm tags, so the constraint is created directly.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_attempt
		ON attempts (student_id, test_id) WHERE status = 'in_progress'`).Error
}
