package models

import (
	"time"
)

// StoreEmployee is the store roster entry for managers and supervisors.
// It mirrors the corresponding User profile and exists iff that profile has
// role manager/supervisor and this store; the reconciler keeps both in sync.
type StoreEmployee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StoreID   string    `gorm:"not null;uniqueIndex:idx_store_employee,priority:1" json:"store_id"`
	UID       string    `gorm:"not null;uniqueIndex:idx_store_employee,priority:2;index" json:"uid"`
	Email     string    `json:"email"`
	Role      string    `gorm:"not null" json:"role"` // manager or supervisor
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the StoreEmployee model
func (StoreEmployee) TableName() string {
	return "store_employees"
}

// StoreTrainee is the store roster entry for trainees, including the
// supervision link. TraineeID is the canonical key; UID duplicates it for
// records written by older clients.
type StoreTrainee struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StoreID      string    `gorm:"not null;uniqueIndex:idx_store_trainee,priority:1" json:"store_id"`
	TraineeID    string    `gorm:"not null;uniqueIndex:idx_store_trainee,priority:2;index" json:"trainee_id"`
	TraineeEmail string    `gorm:"index" json:"trainee_email"`
	UID          string    `gorm:"index" json:"uid"` // legacy duplicate of TraineeID
	Email        string    `json:"email"`
	SupervisorID *string   `gorm:"index" json:"supervisor_id"` // must reference a supervisor at the same store
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the StoreTrainee model
func (StoreTrainee) TableName() string {
	return "store_trainees"
}
