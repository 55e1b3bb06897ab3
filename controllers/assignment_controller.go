package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/middleware"
	"github.com/storeline/training-tracker-api/models"
	"github.com/storeline/training-tracker-api/services"
	"gorm.io/gorm"
)

// AssignSupervisorRequest represents the request body for linking a trainee
// to a supervisor
type AssignSupervisorRequest struct {
	TraineeID    string `json:"trainee_id" binding:"required"`
	SupervisorID string `json:"supervisor_id" binding:"required"`
}

// RoleToggleRequest represents the request body for promote/demote
type RoleToggleRequest struct {
	UID string `json:"uid" binding:"required"`
}

// AssignSupervisor handles POST /api/v1/assignments - links a trainee to a
// supervisor at the manager's store. Both sides are validated against the
// profile table before the roster row is updated, and the mirrored fields
// are written in one transaction so they cannot drift.
func AssignSupervisor(c *gin.Context) {
	var req AssignSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	storeID := storeScopeForWrite(c)
	if storeID == "" {
		return
	}

	db := config.GetDB()

	var supervisor models.User
	if err := db.Where("uid = ? AND role = ?", req.SupervisorID, models.RoleSupervisor).
		First(&supervisor).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SUPERVISOR",
				"message": "Supervisor not found or does not have the supervisor role",
			},
		})
		return
	}
	if supervisor.StoreID == nil || *supervisor.StoreID != storeID {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORE_MISMATCH",
				"message": "Supervisor belongs to a different store",
			},
		})
		return
	}

	var entry models.StoreTrainee
	if err := db.Where("store_id = ? AND trainee_id = ?", storeID, req.TraineeID).
		First(&entry).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TRAINEE_NOT_FOUND",
				"message": "Trainee is not on this store's roster",
			},
		})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.StoreTrainee{}).
			Where("store_id = ? AND trainee_id = ?", storeID, req.TraineeID).
			Updates(map[string]interface{}{
				"supervisor_id": req.SupervisorID,
				"active":        true,
			}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to assign supervisor",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"trainee_id":    req.TraineeID,
			"supervisor_id": req.SupervisorID,
			"store_id":      storeID,
		},
	})
}

// PromoteToSupervisor handles POST /api/v1/assignments/promote - raises an
// employee at the manager's store to supervisor
func PromoteToSupervisor(c *gin.Context) {
	toggleRole(c, models.RoleEmployee, models.RoleSupervisor)
}

// DemoteToEmployee handles POST /api/v1/assignments/demote - lowers a
// supervisor at the manager's store back to employee
func DemoteToEmployee(c *gin.Context) {
	toggleRole(c, models.RoleSupervisor, models.RoleEmployee)
}

// toggleRole flips a user between employee and supervisor. The profile is
// the source of truth for role, so it is written first; the roster entry and
// the identity provider's claims follow in the same request.
func toggleRole(c *gin.Context, fromRole, toRole string) {
	var req RoleToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	storeID := storeScopeForWrite(c)
	if storeID == "" {
		return
	}

	db := config.GetDB()

	var user models.User
	if err := db.Where("uid = ?", req.UID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found",
			},
		})
		return
	}

	if user.Role != fromRole {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ROLE_TRANSITION",
				"message": "User does not currently hold the expected role",
			},
		})
		return
	}
	if user.StoreID == nil || *user.StoreID != storeID {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORE_MISMATCH",
				"message": "User belongs to a different store",
			},
		})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("uid = ?", req.UID).
			Update("role", toRole).Error; err != nil {
			return err
		}

		user.Role = toRole
		// Re-assert the roster entry under the new role. A demotion to
		// plain employee leaves no roster entry, so the old one is
		// deactivated instead.
		if models.IsStaffRole(toRole) {
			return services.EnsureStoreMembership(tx, &user, storeID)
		}
		return tx.Model(&models.StoreEmployee{}).
			Where("store_id = ? AND uid = ?", storeID, req.UID).
			Update("active", false).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update role",
			},
		})
		return
	}

	// Refresh the token claims so the next session resolves the new role.
	// A failure here is logged by the service and does not undo the
	// database change; the role gate's profile fallback covers the gap
	// until claims catch up.
	if auth0 := services.GetAuth0Service(); auth0 != nil {
		_ = auth0.SetCustomClaims(req.UID, toRole, storeID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"uid":      req.UID,
			"role":     toRole,
			"store_id": storeID,
		},
	})
}

// storeScopeForWrite returns the caller's store for assignment writes,
// responding with a denial when the caller has no store
func storeScopeForWrite(c *gin.Context) string {
	storeID := middleware.GetResolvedStoreID(c)
	if storeID == "" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "No store is associated with your account",
			},
		})
		c.Abort()
	}
	return storeID
}
