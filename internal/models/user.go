package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;size:20;index"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// Group is a cohort of students a test is assigned to. Group management
// belongs to the catalog service; this service only reads membership and
// activity status when checking test access.
type Group struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	Name     string     `json:"name" gorm:"not null;size:100"`
	IsActive bool       `json:"is_active" gorm:"default:true;index"`
	StartsAt *time.Time `json:"starts_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Members []GroupMember `json:"members" gorm:"foreignKey:GroupID"`
}

func (Group) TableName() string {
	return "groups"
}

type GroupMember struct {
	GroupID   uint   `json:"group_id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"primaryKey;size:255"`

	CreatedAt time.Time `json:"created_at"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
