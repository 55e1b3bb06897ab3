package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storeline/training-tracker-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Invite redemption failures, in validation order. Controllers map these to
// specific response codes; everything else is a backend failure.
var (
	ErrInviteNotFound  = errors.New("invite code not found")
	ErrInviteDisabled  = errors.New("invite code has been disabled")
	ErrInviteExhausted = errors.New("invite code has no remaining uses")
	ErrInviteUsed      = errors.New("invite code has already been used")
)

// CreateInvite issues a new invite for a role at a store. Admin invites
// carry no store. The code is a random UUID; MaxUses of 1 produces a
// single-use invite.
func CreateInvite(db *gorm.DB, role string, storeID *string, maxUses int) (*models.Invite, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if role == models.RoleAdmin {
		storeID = nil
	}
	if maxUses < 1 {
		maxUses = 1
	}

	invite := models.Invite{
		Code:    uuid.New().String(),
		Role:    role,
		StoreID: storeID,
		MaxUses: maxUses,
	}

	if err := db.Create(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// RedeemInvite atomically redeems a code for an identity: the invite is
// validated, the profile is provisioned with the invite's role and store,
// the matching roster row is written, and the invite's usage is recorded,
// all in one transaction. Any validation failure aborts with no partial
// writes. The row lock on the invite serializes concurrent redemptions, so
// a bounded-use invite can never be consumed past its limit.
func RedeemInvite(db *gorm.DB, code string, identity Identity) (*models.User, error) {
	var user *models.User

	err := db.Transaction(func(tx *gorm.DB) error {
		// Row-level lock on Postgres; SQLite serializes writers on its own
		query := tx.Where("code = ?", code)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var invite models.Invite
		err := query.First(&invite).Error
		if err == gorm.ErrRecordNotFound {
			return ErrInviteNotFound
		}
		if err != nil {
			return err
		}

		if invite.Disabled {
			return ErrInviteDisabled
		}
		if invite.Exhausted() {
			return ErrInviteExhausted
		}
		// Legacy single-use rows flagged used without a recorded use count
		if invite.MaxUses <= 1 && invite.Used {
			return ErrInviteUsed
		}

		storeID := invite.StoreID
		if invite.Role == models.RoleAdmin {
			storeID = nil
		}

		merged, err := mergeProfile(tx, identity, invite.Role, storeID)
		if err != nil {
			return err
		}

		if storeID != nil {
			if err := ensureMembership(tx, merged, *storeID); err != nil {
				return err
			}
		}

		now := time.Now()
		inviteUpdates := map[string]interface{}{
			"uses":         invite.Uses + 1,
			"last_used_at": now,
			"last_used_by": identity.UID,
		}
		if invite.MaxUses <= 1 {
			inviteUpdates["used"] = true
		}
		if err := tx.Model(&models.Invite{}).Where("code = ?", code).
			Updates(inviteUpdates).Error; err != nil {
			return err
		}

		user = merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// mergeProfile provisions or updates the profile with the invite's role and
// store. Existing name and created_at survive; role, store, email, and the
// start date are taken from the redemption.
func mergeProfile(tx *gorm.DB, identity Identity, role string, storeID *string) (*models.User, error) {
	now := time.Now()

	var user models.User
	err := tx.Where("uid = ?", identity.UID).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		user = models.User{
			UID:       identity.UID,
			Email:     identity.Email,
			Name:      identity.Name,
			Role:      role,
			StoreID:   storeID,
			StartDate: &now,
		}
		if err := tx.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"email":    identity.Email,
		"role":     role,
		"store_id": storeID,
	}
	if user.StartDate == nil {
		updates["start_date"] = now
		user.StartDate = &now
	}
	if err := tx.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}

	user.Email = identity.Email
	user.Role = role
	user.StoreID = storeID
	return &user, nil
}

// DisableInvite marks an invite so no further redemptions succeed
func DisableInvite(db *gorm.DB, code string) error {
	result := db.Model(&models.Invite{}).Where("code = ?", code).
		Update("disabled", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// IsInviteValidationError reports whether err is one of the redemption
// validation failures (as opposed to a backend failure)
func IsInviteValidationError(err error) bool {
	return errors.Is(err, ErrInviteNotFound) ||
		errors.Is(err, ErrInviteDisabled) ||
		errors.Is(err, ErrInviteUsed) ||
		errors.Is(err, ErrInviteExhausted)
}

// NormalizeInviteCode trims surrounding whitespace from a user-entered code
func NormalizeInviteCode(code string) string {
	return strings.TrimSpace(code)
}
