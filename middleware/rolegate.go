package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/models"
)

// RequireRole gates a route behind a set of allowed roles. An empty allowed
// set means no gating. The role is resolved from the session token's custom
// claims first; if the token carries no role claim, the profile row is read
// as a fallback. A user whose role cannot be resolved, or whose role is not
// in the allowed set, gets a denial. That is a normal negative result, never
// a 5xx.
//
// On success the resolved role and store id are stored in the context under
// "resolved_role" and "resolved_store_id" for downstream handlers.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		role, storeID := GetSessionClaims(c)

		// Fall back to the profile document when the token has no role claim
		if role == "" {
			uid, err := GetUserID(c)
			if err != nil {
				deny(c)
				return
			}

			var user models.User
			if err := config.GetDB().Where("uid = ?", uid).First(&user).Error; err != nil {
				// Unknown profile or backend failure both resolve to denied
				deny(c)
				return
			}
			role = user.Role
			if user.StoreID != nil {
				storeID = *user.StoreID
			}
		}

		if len(allowed) > 0 && !allowed[role] {
			deny(c)
			return
		}

		c.Set("resolved_role", role)
		c.Set("resolved_store_id", storeID)
		c.Next()
	}
}

// GetResolvedRole returns the role placed in the context by RequireRole
func GetResolvedRole(c *gin.Context) string {
	if role, exists := c.Get("resolved_role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr
		}
	}
	return ""
}

// GetResolvedStoreID returns the store id placed in the context by RequireRole
func GetResolvedStoreID(c *gin.Context) string {
	if storeID, exists := c.Get("resolved_store_id"); exists {
		if storeIDStr, ok := storeID.(string); ok {
			return storeIDStr
		}
	}
	return ""
}

func deny(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": "You do not have permission to access this resource",
		},
	})
	c.Abort()
}
