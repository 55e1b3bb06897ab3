package services

import (
	"strings"

	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/models"
	"gorm.io/gorm"
)

// Identity is an authenticated user as reported by the identity provider.
// Role carries the custom role claim from the session token when present.
type Identity struct {
	UID   string
	Email string
	Name  string
	Role  string
}

// ResolveProfile returns the canonical profile for an identity, creating it
// with a default role and no store when it does not exist yet. An existing
// profile is returned as stored, without mutation, so the call is safe to
// make on every session. Backend errors propagate to the caller; retrying is
// the caller's responsibility.
func ResolveProfile(db *gorm.DB, identity Identity) (*models.User, error) {
	var user models.User
	err := db.Where("uid = ?", identity.UID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	role := identity.Role
	if !models.IsValidRole(role) {
		role = config.GetConfig().DefaultRole
	}

	user = models.User{
		UID:   identity.UID,
		Email: identity.Email,
		Name:  identity.Name,
		Role:  role,
	}

	if err := db.Create(&user).Error; err != nil {
		// Two sessions can race on first sign-in; the loser re-reads the
		// row the winner created.
		if isUniqueViolation(err) {
			if readErr := db.Where("uid = ?", identity.UID).First(&user).Error; readErr == nil {
				return &user, nil
			}
		}
		return nil, err
	}

	return &user, nil
}

// isUniqueViolation detects duplicate-key errors from both PostgreSQL and SQLite
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}
