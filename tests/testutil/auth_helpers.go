package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing. The role and
// storeID become the token's custom claims; leave them empty to simulate a
// token that predates claim assignment.
func MockValidatedClaims(subject, issuer, role, storeID string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Role:    role,
			StoreID: storeID,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID, role, storeID string) {
	claims := MockValidatedClaims(userID, "https://test.auth0.com/", role, storeID)
	c.Set("user_id", userID)
	c.Set("validated_claims", claims)
}

// MockAuthMiddleware returns a middleware that simulates a validated session
// for the given identity. The access token is registered so handlers that call
// the userinfo endpoint resolve it against the mock Auth0 service.
func MockAuthMiddleware(userID, role, storeID, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, userID, role, storeID)
		if accessToken != "" {
			c.Set("access_token", accessToken)
		}
		c.Next()
	}
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}
