package services

import (
	"testing"

	"github.com/storeline/training-tracker-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.StoreEmployee{},
		&models.StoreTrainee{},
		&models.Invite{},
		&models.ProgressRecord{},
		&models.Note{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func strPtr(s string) *string {
	return &s
}
