package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/middleware"
	"github.com/storeline/training-tracker-api/models"
	"github.com/storeline/training-tracker-api/services"
)

// CreateInviteRequest represents the request body for issuing an invite
type CreateInviteRequest struct {
	Role    string  `json:"role" binding:"required"`
	StoreID *string `json:"store_id"`
	MaxUses int     `json:"max_uses"`
}

// RedeemInviteRequest represents the request body for redeeming an invite
type RedeemInviteRequest struct {
	Code string `json:"code" binding:"required"`
}

// CreateInvite handles POST /api/v1/invites - issues an invite code
// (managers for their own store, admins for any store or for admin invites)
func CreateInvite(c *gin.Context) {
	var req CreateInviteRequest
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

	if !models.IsValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ROLE",
				"message": "Unknown role for invite",
			},
		})
		return
	}

	role := middleware.GetResolvedRole(c)
	if role == models.RoleManager {
		// Managers can only invite non-admin roles into their own store
		storeID := middleware.GetResolvedStoreID(c)
		if req.Role == models.RoleAdmin || req.Role == models.RoleManager {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Managers cannot issue invites for this role",
				},
			})
			return
		}
		if storeID == "" || (req.StoreID != nil && *req.StoreID != storeID) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Managers can only issue invites for their own store",
				},
			})
			return
		}
		req.StoreID = &storeID
	}

	invite, err := services.CreateInvite(config.GetDB(), req.Role, req.StoreID, req.MaxUses)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create invite",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    invite,
	})
}

// RedeemInvite handles POST /api/v1/invites/redeem - atomically redeems a
// code for the caller, provisioning their profile and roster entry
func RedeemInvite(c *gin.Context) {
	uid, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	var req RedeemInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invite code is required",
				"details": err.Error(),
			},
		})
		return
	}

	identity := services.Identity{UID: uid}
	if accessToken, tokenErr := middleware.GetAccessToken(c); tokenErr == nil {
		if auth0 := services.GetAuth0Service(); auth0 != nil {
			if info, infoErr := auth0.GetUserInfo(accessToken); infoErr == nil {
				identity.Email = info.Email
				identity.Name = info.Name
			}
		}
	}

	code := services.NormalizeInviteCode(req.Code)
	user, err := services.RedeemInvite(config.GetDB(), code, identity)
	if err != nil {
		status, errCode := inviteErrorResponse(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    errCode,
				"message": inviteErrorMessage(err),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// inviteErrorResponse maps redemption failures to HTTP status and error code
func inviteErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInviteNotFound):
		return http.StatusNotFound, "INVITE_NOT_FOUND"
	case errors.Is(err, services.ErrInviteDisabled):
		return http.StatusGone, "INVITE_DISABLED"
	case errors.Is(err, services.ErrInviteUsed):
		return http.StatusGone, "INVITE_USED"
	case errors.Is(err, services.ErrInviteExhausted):
		return http.StatusGone, "INVITE_EXHAUSTED"
	default:
		return http.StatusInternalServerError, "DATABASE_ERROR"
	}
}

func inviteErrorMessage(err error) string {
	if services.IsInviteValidationError(err) {
		return err.Error()
	}
	return "Failed to redeem invite"
}
