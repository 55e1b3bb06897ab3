package models

import (
	"time"
)

// Store represents a physical retail location. IDs are stable,
// human-meaningful strings (e.g. "24").
type Store struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Number        int       `json:"number"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	ManagerUID    string    `json:"manager_uid"` // legacy single primary manager; set once, never overwritten
	ManagerUIDs   StringSet `gorm:"type:text" json:"manager_uids"`
	ManagerEmails StringSet `gorm:"type:text" json:"manager_emails"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Store model
func (Store) TableName() string {
	return "stores"
}
