package services

import (
	"log"
	"time"

	"github.com/storeline/training-tracker-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resolution is the outcome of reconciling an identity's store membership.
// A nil StoreID with Pending set means the user is provisioned but not yet
// assigned to a store; consumers show a waiting screen, not an error.
type Resolution struct {
	Role    string  `json:"role"`
	StoreID *string `json:"store_id"`
	Pending bool    `json:"pending"`
}

// Reconcile converges a profile's store membership and returns the resolved
// role and store. Every invocation is self-healing: even when the store is
// already known, the membership rows and store aggregates are re-asserted
// with merge semantics, so a second call is a no-op beyond refreshed
// timestamps. Any database error aborts the call; the caller treats the
// identity as unresolved for the session and retries on the next auth event.
func Reconcile(db *gorm.DB, user *models.User) (Resolution, error) {
	// Nothing to reconcile until a role exists
	if user.Role == "" {
		return Resolution{}, nil
	}

	// Admins never belong to a store. A stray store id on the profile is
	// ignored rather than repaired here.
	if user.Role == models.RoleAdmin {
		return Resolution{Role: models.RoleAdmin}, nil
	}

	storeID := user.StoreID

	// Discovery: scan the rosters across all stores for this identity
	if storeID == nil {
		discovered, err := discoverStore(db, user)
		if err != nil {
			return Resolution{}, err
		}
		if discovered != "" {
			// Backfill only the store column; the rest of the profile
			// is not ours to touch.
			if err := db.Model(&models.User{}).Where("uid = ?", user.UID).
				Update("store_id", discovered).Error; err != nil {
				return Resolution{}, err
			}
			user.StoreID = &discovered
			storeID = &discovered
			log.Printf("Reconciled user %s to store %s via roster discovery", user.UID, discovered)
		}
	}

	// Still unassigned: report pending, write nothing
	if storeID == nil {
		return Resolution{Role: user.Role, Pending: true}, nil
	}

	// Membership guarantee: the roster rows and store aggregates must agree
	// with the profile
	if err := ensureMembership(db, user, *storeID); err != nil {
		return Resolution{}, err
	}

	return Resolution{Role: user.Role, StoreID: storeID}, nil
}

// discoverStore searches every store's roster for a record of this identity
// and returns the matched store id, or "" when no roster knows the user.
// Results are ordered oldest-first (then by store id) so that a uid matching
// several stores resolves deterministically to its earliest membership.
func discoverStore(db *gorm.DB, user *models.User) (string, error) {
	if models.IsStaffRole(user.Role) {
		var entry models.StoreEmployee
		err := db.Where("uid = ?", user.UID).
			Order("created_at ASC, store_id ASC").
			First(&entry).Error
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return entry.StoreID, nil
	}

	if user.Role == models.RoleTrainee {
		// Three match strategies tried in order, short-circuiting on the
		// first that returns anything: canonical trainee id, the legacy
		// uid field, then email as a last resort.
		conditions := []struct {
			query string
			arg   string
		}{
			{"trainee_id = ?", user.UID},
			{"uid = ?", user.UID},
			{"trainee_email = ?", user.Email},
		}

		for _, cond := range conditions {
			if cond.arg == "" {
				continue
			}
			var entry models.StoreTrainee
			err := db.Where(cond.query, cond.arg).
				Order("created_at ASC, store_id ASC").
				First(&entry).Error
			if err == gorm.ErrRecordNotFound {
				continue
			}
			if err != nil {
				return "", err
			}
			return entry.StoreID, nil
		}
	}

	// Plain employees have no roster collection to discover from
	return "", nil
}

// EnsureStoreMembership re-asserts the roster and aggregate rows for a user
// at a store. Exported for flows that change roles outside a reconcile
// (promotion, admin provisioning).
func EnsureStoreMembership(db *gorm.DB, user *models.User, storeID string) error {
	return ensureMembership(db, user, storeID)
}

// ensureMembership upserts the roster row for the user at storeID and, for
// staff roles, folds the user into the store's manager aggregates. All
// writes are merges keyed by identity, so concurrent invocations converge
// on the same state.
func ensureMembership(db *gorm.DB, user *models.User, storeID string) error {
	switch {
	case models.IsStaffRole(user.Role):
		if err := upsertEmployeeEntry(db, user, storeID); err != nil {
			return err
		}
		return updateStoreAggregates(db, user, storeID)

	case user.Role == models.RoleTrainee:
		return upsertTraineeEntry(db, user, storeID)
	}

	// Plain employees carry no roster entry
	return nil
}

func upsertEmployeeEntry(db *gorm.DB, user *models.User, storeID string) error {
	entry := models.StoreEmployee{
		StoreID: storeID,
		UID:     user.UID,
		Email:   user.Email,
		Role:    user.Role,
		Active:  true,
	}

	// Merge on conflict: refresh the mirrored fields, keep created_at
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"email":      user.Email,
			"role":       user.Role,
			"active":     true,
			"updated_at": time.Now(),
		}),
	}).Create(&entry).Error
}

func upsertTraineeEntry(db *gorm.DB, user *models.User, storeID string) error {
	entry := models.StoreTrainee{
		StoreID:      storeID,
		TraineeID:    user.UID,
		TraineeEmail: user.Email,
		UID:          user.UID,
		Email:        user.Email,
		Active:       true,
	}

	// supervisor_id is deliberately not in the update set: the assignment
	// flow owns that field and a reconcile must not revert it
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "trainee_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"trainee_email": user.Email,
			"uid":           user.UID,
			"email":         user.Email,
			"active":        true,
			"updated_at":    time.Now(),
		}),
	}).Create(&entry).Error
}

// updateStoreAggregates adds the user to the store's manager_uids and
// manager_emails sets. The sets grow for supervisors too, matching the
// roster history this schema inherits. The legacy single manager_uid field
// is set only once, by the first manager to claim a store with a blank
// primary; the read and conditional write run inside one transaction, with
// the store row locked so a concurrent reconcile cannot overwrite the union
// with a stale read.
func updateStoreAggregates(db *gorm.DB, user *models.User, storeID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// Row-level lock on Postgres; SQLite serializes writers on its own
		query := tx.Where(models.Store{ID: storeID})
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var store models.Store
		if err := query.FirstOrCreate(&store).Error; err != nil {
			return err
		}

		updates := make(map[string]interface{})

		if store.ManagerUIDs.Add(user.UID) {
			updates["manager_uids"] = store.ManagerUIDs
		}
		if store.ManagerEmails.Add(user.Email) {
			updates["manager_emails"] = store.ManagerEmails
		}
		if user.Role == models.RoleManager && store.ManagerUID == "" {
			updates["manager_uid"] = user.UID
		}

		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&models.Store{}).Where("id = ?", storeID).
			Updates(updates).Error
	})
}
