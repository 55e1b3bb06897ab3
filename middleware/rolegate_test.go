package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRoleGateTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

// seedSession plants the context values EnsureValidToken normally sets
func seedSession(uid, role, storeID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", uid)
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: uid},
			CustomClaims:     &CustomClaims{Role: role, StoreID: storeID},
		})
		c.Next()
	}
}

func roleGateRouter(session gin.HandlerFunc, allowedRoles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/guarded", session, RequireRole(allowedRoles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"role":     GetResolvedRole(c),
			"store_id": GetResolvedStoreID(c),
		})
	})
	return router
}

func TestRequireRole_AllowsClaimRole(t *testing.T) {
	setupRoleGateTestDB(t)

	router := roleGateRouter(seedSession("auth0|mgr", models.RoleManager, "12"),
		models.RoleManager, models.RoleAdmin)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"manager"`)
	assert.Contains(t, w.Body.String(), `"store_id":"12"`)
}

func TestRequireRole_DeniesRoleOutsideAllowedSet(t *testing.T) {
	setupRoleGateTestDB(t)

	router := roleGateRouter(seedSession("auth0|emp", models.RoleEmployee, "12"),
		models.RoleManager, models.RoleAdmin)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")
}

func TestRequireRole_FallsBackToProfileWhenClaimsEmpty(t *testing.T) {
	db := setupRoleGateTestDB(t)

	storeID := "7"
	require.NoError(t, db.Create(&models.User{
		UID: "auth0|legacy", Email: "legacy@example.com",
		Role: models.RoleSupervisor, StoreID: &storeID,
	}).Error)

	// Token predates claim assignment: no role claim at all
	router := roleGateRouter(seedSession("auth0|legacy", "", ""),
		models.RoleSupervisor, models.RoleManager)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"supervisor"`)
	assert.Contains(t, w.Body.String(), `"store_id":"7"`)
}

func TestRequireRole_DeniesProfileRoleOutsideAllowedSet(t *testing.T) {
	db := setupRoleGateTestDB(t)

	require.NoError(t, db.Create(&models.User{
		UID: "auth0|legacyemp", Email: "legacyemp@example.com",
		Role: models.RoleEmployee,
	}).Error)

	router := roleGateRouter(seedSession("auth0|legacyemp", "", ""),
		models.RoleManager, models.RoleAdmin)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_DeniesUnknownProfile(t *testing.T) {
	setupRoleGateTestDB(t)

	router := roleGateRouter(seedSession("auth0|ghost", "", ""), models.RoleManager)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_EmptyAllowedSetPassesAnyRole(t *testing.T) {
	setupRoleGateTestDB(t)

	router := roleGateRouter(seedSession("auth0|anyone", models.RoleTrainee, "3"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"trainee"`)
}
