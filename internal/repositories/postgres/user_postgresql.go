package postgres

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u UserPostgreSQL) HasGroupAccess(ctx context.Context, studentID string, groupID uint) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Joins("JOIN groups ON groups.id = group_members.group_id").
		Where("group_members.group_id = ? AND group_members.student_id = ?", groupID, studentID).
		Where("groups.is_active = ?", true).
		Where("groups.starts_at IS NULL OR groups.starts_at <= ?", time.Now()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
