package models

import (
	"time"

	"gorm.io/gorm"
)

// ProgressRecord tracks completion of one weekly training task for one user
type ProgressRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UID           string         `gorm:"not null;uniqueIndex:idx_progress_task,priority:1" json:"uid"`
	StoreID       string         `gorm:"index" json:"store_id"`
	Week          int            `gorm:"not null;uniqueIndex:idx_progress_task,priority:2" json:"week"`
	TaskID        string         `gorm:"not null;uniqueIndex:idx_progress_task,priority:3" json:"task_id"`
	Completed     bool           `gorm:"not null;default:false" json:"completed"`
	CompletedAt   *time.Time     `json:"completed_at"`
	EvidenceS3Key *string        `json:"evidence_s3_key"`              // nullable, S3 key for uploaded evidence photo
	EvidenceURL   *string        `gorm:"-" json:"evidence_url,omitempty"` // computed field, presigned URL
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ProgressRecord model
func (ProgressRecord) TableName() string {
	return "progress_records"
}
