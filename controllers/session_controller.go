package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/middleware"
	"github.com/storeline/training-tracker-api/services"
)

// ResolveSession handles POST /api/v1/session - resolves the caller's role
// and store membership, creating the profile and repairing roster linkage as
// needed. The client calls this on every sign-in; the whole flow is
// idempotent. A null store id with pending=true means "not yet assigned to a
// store", which the UI renders as a waiting screen, not an error.
func ResolveSession(c *gin.Context) {
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

	claimRole, _ := middleware.GetSessionClaims(c)
	identity := services.Identity{UID: uid, Role: claimRole}

	// The userinfo call supplies email and name for first-time profile
	// creation; an existing profile is returned as stored, so skipping it
	// when the token is unavailable is harmless.
	if accessToken, tokenErr := middleware.GetAccessToken(c); tokenErr == nil {
		if auth0 := services.GetAuth0Service(); auth0 != nil {
			if info, infoErr := auth0.GetUserInfo(accessToken); infoErr == nil {
				identity.Email = info.Email
				identity.Name = info.Name
			}
		}
	}

	db := config.GetDB()
	user, err := services.ResolveProfile(db, identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to resolve user profile",
			},
		})
		return
	}

	if user.Disabled {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ACCOUNT_DEACTIVATED",
				"message": "This account has been deactivated",
			},
		})
		return
	}

	resolution, err := services.Reconcile(db, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to reconcile store membership",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resolution,
	})
}
