package models

import (
	"time"

	"gorm.io/gorm"
)

// Note is a short message between a trainee and their supervisor or manager
type Note struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	StoreID      string         `gorm:"not null;index" json:"store_id"`
	SenderUID    string         `gorm:"not null;index" json:"sender_uid"`
	RecipientUID string         `gorm:"not null;index" json:"recipient_uid"`
	Text         string         `gorm:"type:text;not null" json:"text"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Note model
func (Note) TableName() string {
	return "notes"
}
