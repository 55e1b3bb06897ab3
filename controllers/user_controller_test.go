package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/middleware"
	"github.com/storeline/training-tracker-api/models"
	"github.com/storeline/training-tracker-api/services"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.StoreEmployee{},
		&models.StoreTrainee{},
		&models.Invite{},
		&models.ProgressRecord{},
		&models.Note{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	config.SetConfig(&config.Config{GoEnv: "test", DefaultRole: "trainee"})
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// setupMockAuth0 installs a mock identity provider and returns it for
// per-test registration and assertions
func setupMockAuth0() *services.MockAuth0Service {
	mock := services.NewMockAuth0Service()
	mock.SetAsMockForTesting()
	return mock
}

// mockAuthMiddleware simulates the JWT middleware for testing. It sets up the
// context exactly as the real EnsureValidToken middleware does.
func mockAuthMiddleware(auth0ID, role, storeID, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		if accessToken != "" {
			c.Set("access_token", accessToken)
		}

		mockClaims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims: &middleware.CustomClaims{
				Role:    role,
				StoreID: storeID,
			},
		}
		c.Set("validated_claims", mockClaims)

		c.Next()
	}
}

func performJSON(router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		bodyJSON, _ := json.Marshal(body)
		reader = bytes.NewReader(bodyJSON)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func TestCreateUser(t *testing.T) {
	setupTestDB(t)
	auth0 := setupMockAuth0()
	auth0.RegisterUserInfo("token-123456", &services.Auth0UserInfo{
		Sub:   "auth0|123456",
		Email: "taylor@example.com",
		Name:  "Taylor Doe",
	})
	auth0.RegisterUserInfo("token-noemail", &services.Auth0UserInfo{
		Sub: "auth0|noemail",
	})

	tests := []struct {
		name           string
		auth0ID        string
		role           string
		accessToken    string
		expectedStatus int
		expectedRole   string
		expectedCode   string
	}{
		{
			name:           "Create user with default role",
			auth0ID:        "auth0|123456",
			role:           "",
			accessToken:    "token-123456",
			expectedStatus: http.StatusCreated,
			expectedRole:   "trainee",
		},
		{
			name:           "Duplicate user is rejected",
			auth0ID:        "auth0|123456",
			role:           "",
			accessToken:    "token-123456",
			expectedStatus: http.StatusConflict,
			expectedCode:   "USER_EXISTS",
		},
		{
			name:           "Missing email from identity provider",
			auth0ID:        "auth0|noemail",
			role:           "",
			accessToken:    "token-noemail",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MISSING_EMAIL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/users", mockAuthMiddleware(tt.auth0ID, tt.role, "", tt.accessToken), CreateUser)

			w, response := performJSON(router, http.MethodPost, "/users", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				errorObj := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedCode, errorObj["code"])
				return
			}

			data := response["data"].(map[string]interface{})
			assert.Equal(t, tt.auth0ID, data["uid"])
			assert.Equal(t, tt.expectedRole, data["role"])
		})
	}
}

func TestCreateUser_ClaimRoleWins(t *testing.T) {
	setupTestDB(t)
	auth0 := setupMockAuth0()
	auth0.RegisterUserInfo("token-sup", &services.Auth0UserInfo{
		Sub:   "auth0|sup",
		Email: "sup@example.com",
		Name:  "Super Visor",
	})

	router := setupTestRouter()
	router.POST("/users", mockAuthMiddleware("auth0|sup", "supervisor", "", "token-sup"), CreateUser)

	w, response := performJSON(router, http.MethodPost, "/users", nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "supervisor", data["role"])
}

func TestGetMyProfile(t *testing.T) {
	db := setupTestDB(t)

	storeID := "12"
	err := db.Create(&models.User{
		UID: "auth0|me", Email: "me@example.com", Name: "Me",
		Role: models.RoleEmployee, StoreID: &storeID,
	}).Error
	assert.NoError(t, err)

	router := setupTestRouter()
	router.GET("/users/me", mockAuthMiddleware("auth0|me", "", "", ""), GetMyProfile)

	w, response := performJSON(router, http.MethodGet, "/users/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "me@example.com", data["email"])
	assert.Equal(t, "12", data["store_id"])
}

func TestGetMyProfile_NotFound(t *testing.T) {
	setupTestDB(t)

	router := setupTestRouter()
	router.GET("/users/me", mockAuthMiddleware("auth0|nobody", "", "", ""), GetMyProfile)

	w, response := performJSON(router, http.MethodGet, "/users/me", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	errorObj := response["error"].(map[string]interface{})
	assert.Equal(t, "USER_NOT_FOUND", errorObj["code"])
}

func TestUpdateMyProfile(t *testing.T) {
	db := setupTestDB(t)

	err := db.Create(&models.User{
		UID: "auth0|me", Email: "me@example.com", Name: "Old Name",
		Role: models.RoleTrainee,
	}).Error
	assert.NoError(t, err)

	router := setupTestRouter()
	router.PUT("/users/me", mockAuthMiddleware("auth0|me", "", "", ""), UpdateMyProfile)

	w, response := performJSON(router, http.MethodPut, "/users/me", map[string]interface{}{
		"name": "New Name",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "New Name", data["name"])
	assert.Equal(t, "me@example.com", data["email"])

	// Role is not updatable through this endpoint
	w, response = performJSON(router, http.MethodPut, "/users/me", map[string]interface{}{
		"role": "admin",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	data = response["data"].(map[string]interface{})
	assert.Equal(t, "trainee", data["role"])
}

func TestUpdateMyProfile_InvalidEmail(t *testing.T) {
	db := setupTestDB(t)

	err := db.Create(&models.User{
		UID: "auth0|me", Email: "me@example.com", Role: models.RoleTrainee,
	}).Error
	assert.NoError(t, err)

	router := setupTestRouter()
	router.PUT("/users/me", mockAuthMiddleware("auth0|me", "", "", ""), UpdateMyProfile)

	w, response := performJSON(router, http.MethodPut, "/users/me", map[string]interface{}{
		"email": "not-an-email",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errorObj := response["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errorObj["code"])
}
