package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/models"
	"github.com/storeline/training-tracker-api/services"
	"gorm.io/gorm"
)

// AssignClaimsRequest represents the request body for the role/claim
// assignment endpoint. Either email or uid identifies the target.
type AssignClaimsRequest struct {
	Email   string  `json:"email"`
	UID     string  `json:"uid"`
	Role    string  `json:"role"`
	StoreID *string `json:"store_id"`
}

// CreateEmployeeRequest represents the request body for provisioning a new
// staff identity
type CreateEmployeeRequest struct {
	Email   string  `json:"email"`
	StoreID *string `json:"store_id"`
	Role    string  `json:"role"`
}

// DeactivateRequest represents the request body for deactivating a user
type DeactivateRequest struct {
	UID string `json:"uid"`
}

// AssignClaims handles POST /api/v1/admin/claims - writes role/store claims
// onto a user's identity and merges the same values into the profile, so
// the token and the profile agree on the next session
func AssignClaims(c *gin.Context) {
	var req AssignClaimsRequest
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

	if req.Role == "" || (req.Email == "" && req.UID == "") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FIELDS",
				"message": "role and one of email or uid are required",
			},
		})
		return
	}
	if !models.IsValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ROLE",
				"message": "Unknown role",
			},
		})
		return
	}

	// Admins never carry a store
	if req.Role == models.RoleAdmin {
		req.StoreID = nil
	}

	db := config.GetDB()

	// Resolve the target uid from email when needed
	uid := req.UID
	if uid == "" {
		var user models.User
		if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "No profile found for that email",
				},
			})
			return
		}
		uid = user.UID
	}

	storeIDValue := ""
	if req.StoreID != nil {
		storeIDValue = *req.StoreID
	}

	if err := services.GetAuth0Service().SetCustomClaims(uid, req.Role, storeIDValue); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH0_ERROR",
				"message": "Failed to write claims to the identity provider",
			},
		})
		return
	}

	// Merge the same values into the profile (the single source of truth
	// downstream). A missing profile is fine: the reconciler will pick the
	// claims up on first sign-in.
	updates := map[string]interface{}{"role": req.Role, "store_id": req.StoreID}
	if err := db.Model(&models.User{}).Where("uid = ?", uid).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update profile",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"uid":      uid,
		"role":     req.Role,
		"store_id": req.StoreID,
	})
}

// CreateEmployee handles POST /api/v1/admin/employees - provisions an
// identity, its profile, and (when a store is given) its roster entry
func CreateEmployee(c *gin.Context) {
	var req CreateEmployeeRequest
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

	if req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FIELDS",
				"message": "email is required",
			},
		})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleEmployee
	}
	if !models.IsValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ROLE",
				"message": "Unknown role",
			},
		})
		return
	}

	uid, err := services.GetAuth0Service().CreateUser(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH0_ERROR",
				"message": "Failed to create identity",
			},
		})
		return
	}

	user := models.User{
		UID:     uid,
		Email:   req.Email,
		Role:    role,
		StoreID: req.StoreID,
	}

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if req.StoreID != nil {
			return services.EnsureStoreMembership(tx, &user, *req.StoreID)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create employee profile",
			},
		})
		return
	}

	storeIDValue := ""
	if req.StoreID != nil {
		storeIDValue = *req.StoreID
	}
	// Best effort: the profile and roster are committed; a claims-write
	// failure self-heals on the user's next session
	if err := services.GetAuth0Service().SetCustomClaims(uid, role, storeIDValue); err != nil {
		log.Printf("Failed to set custom claims for %s: %v", uid, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    user,
	})
}

// DeactivateUser handles POST /api/v1/admin/deactivate - disables the
// profile, flags the identity as deactivated, and revokes active sessions
func DeactivateUser(c *gin.Context) {
	var req DeactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FIELDS",
				"message": "uid is required",
			},
		})
		return
	}

	db := config.GetDB()
	result := db.Model(&models.User{}).Where("uid = ?", req.UID).
		Update("disabled", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to disable profile",
			},
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found",
			},
		})
		return
	}

	auth0 := services.GetAuth0Service()
	if err := auth0.SetDeactivated(req.UID, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH0_ERROR",
				"message": "Failed to deactivate identity",
			},
		})
		return
	}
	if err := auth0.RevokeSessions(req.UID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH0_ERROR",
				"message": "Failed to revoke sessions",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"uid":      req.UID,
			"disabled": true,
		},
	})
}
