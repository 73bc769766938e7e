package models

import "time"

// User roles.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
)

// User statuses, admin-controlled.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// UserModel represents an admin, teacher or parent account.
type UserModel struct {
	Base
	Username      string     `json:"username"        gorm:"uniqueIndex;not null"`
	Email         string     `json:"email"           gorm:"uniqueIndex"`
	Name          string     `json:"name"`
	Password      string     `json:"-"               gorm:"not null"`
	Role          string     `json:"role"            gorm:"index;not null;default:parent"`
	Status        string     `json:"status"          gorm:"index;not null;default:active"`
	Avatar        string     `json:"avatar"`
	Phone         string     `json:"phone"`
	SchoolID      string     `json:"school_id"       gorm:"index"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "users" }
