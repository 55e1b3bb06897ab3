package models

import (
	"time"

	"gorm.io/gorm"
)

// Valid user roles. User.Role is the single source of truth for a user's
// role; roster entries mirror it and are repaired by the reconciler.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleSupervisor = "supervisor"
	RoleEmployee   = "employee"
	RoleTrainee    = "trainee"
)

// User represents the canonical per-identity profile document
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UID       string         `gorm:"uniqueIndex;not null" json:"uid"` // Auth0 user ID (from 'sub' claim)
	Email     string         `gorm:"index;not null" json:"email"`
	Name      string         `json:"name"`
	Role      string         `gorm:"not null;default:'trainee'" json:"role"` // admin, manager, supervisor, employee, trainee
	StoreID   *string        `gorm:"index" json:"store_id"`                  // nil for admins and not-yet-assigned users
	StartDate *time.Time     `json:"start_date"`
	Disabled  bool           `gorm:"not null;default:false" json:"disabled"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleSupervisor, RoleEmployee, RoleTrainee:
		return true
	}
	return false
}

// IsStaffRole reports whether role holds an employee roster entry at a store
func IsStaffRole(role string) bool {
	return role == RoleManager || role == RoleSupervisor
}
