package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/storeline/training-tracker-api/middleware"
	"github.com/storeline/training-tracker-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedNoteUsers creates a store 12 cast: a manager, a supervisor, two
// trainees, and an employee at another store
func seedNoteUsers(t *testing.T, db *gorm.DB) {
	t.Helper()

	store12 := "12"
	store99 := "99"
	users := []models.User{
		{UID: "auth0|mgr", Email: "mgr@example.com", Role: models.RoleManager, StoreID: &store12},
		{UID: "auth0|sup", Email: "sup@example.com", Role: models.RoleSupervisor, StoreID: &store12},
		{UID: "auth0|tr1", Email: "tr1@example.com", Role: models.RoleTrainee, StoreID: &store12},
		{UID: "auth0|tr2", Email: "tr2@example.com", Role: models.RoleTrainee, StoreID: &store12},
		{UID: "auth0|far", Email: "far@example.com", Role: models.RoleEmployee, StoreID: &store99},
	}
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}
}

func TestSendNote(t *testing.T) {
	db := setupTestDB(t)
	seedNoteUsers(t, db)

	tests := []struct {
		name           string
		senderUID      string
		recipientUID   string
		expectedStatus int
	}{
		{"trainee writes to supervisor", "auth0|tr1", "auth0|sup", http.StatusCreated},
		{"trainee writes to manager", "auth0|tr1", "auth0|mgr", http.StatusCreated},
		{"trainee cannot write to another trainee", "auth0|tr1", "auth0|tr2", http.StatusForbidden},
		{"supervisor writes to trainee", "auth0|sup", "auth0|tr1", http.StatusCreated},
		{"cross-store note is refused", "auth0|mgr", "auth0|far", http.StatusForbidden},
		{"unknown recipient", "auth0|mgr", "auth0|ghost", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/notes", mockAuthMiddleware(tt.senderUID, "", "", ""), SendNote)

			w, _ := performJSON(router, http.MethodPost, "/notes", map[string]interface{}{
				"recipient_uid": tt.recipientUID,
				"text":          "Great work on the stocking drill",
			})
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestSendNote_RequiresStoreAssignment(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.User{
		UID: "auth0|pending", Email: "pending@example.com", Role: models.RoleTrainee,
	}).Error)

	router := setupTestRouter()
	router.POST("/notes", mockAuthMiddleware("auth0|pending", "", "", ""), SendNote)

	w, response := performJSON(router, http.MethodPost, "/notes", map[string]interface{}{
		"recipient_uid": "auth0|anyone",
		"text":          "hello",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	errorObj := response["error"].(map[string]interface{})
	assert.Equal(t, "FORBIDDEN", errorObj["code"])
}

func TestListMyNotes(t *testing.T) {
	db := setupTestDB(t)
	seedNoteUsers(t, db)

	notes := []models.Note{
		{StoreID: "12", SenderUID: "auth0|sup", RecipientUID: "auth0|tr1", Text: "first"},
		{StoreID: "12", SenderUID: "auth0|tr1", RecipientUID: "auth0|mgr", Text: "second"},
		{StoreID: "12", SenderUID: "auth0|mgr", RecipientUID: "auth0|sup", Text: "not for tr1"},
	}
	for i := range notes {
		require.NoError(t, db.Create(&notes[i]).Error)
	}

	router := setupTestRouter()
	router.GET("/notes", mockAuthMiddleware("auth0|tr1", "", "", ""), ListMyNotes)

	w, response := performJSON(router, http.MethodGet, "/notes", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := response["data"].([]interface{})
	assert.Len(t, data, 2)
}

func TestDeleteNote(t *testing.T) {
	db := setupTestDB(t)
	seedNoteUsers(t, db)

	newNote := func(t *testing.T) models.Note {
		t.Helper()
		note := models.Note{
			StoreID: "12", SenderUID: "auth0|sup", RecipientUID: "auth0|tr1", Text: "note",
		}
		require.NoError(t, db.Create(&note).Error)
		return note
	}

	deleteAs := func(uid, role, storeID string, noteID uint) int {
		router := setupTestRouter()
		router.DELETE("/notes/:id",
			mockAuthMiddleware(uid, role, storeID, ""),
			middleware.RequireRole(),
			DeleteNote)
		w, _ := performJSON(router, http.MethodDelete, fmt.Sprintf("/notes/%d", noteID), nil)
		return w.Code
	}

	// The sender can delete their own note
	note := newNote(t)
	assert.Equal(t, http.StatusOK, deleteAs("auth0|sup", "supervisor", "12", note.ID))

	// A manager of the note's store can delete it
	note = newNote(t)
	assert.Equal(t, http.StatusOK, deleteAs("auth0|mgr", "manager", "12", note.ID))

	// The recipient cannot
	note = newNote(t)
	assert.Equal(t, http.StatusForbidden, deleteAs("auth0|tr1", "trainee", "12", note.ID))

	// A manager of a different store cannot
	note = newNote(t)
	assert.Equal(t, http.StatusForbidden, deleteAs("auth0|far", "manager", "99", note.ID))
}

func TestDeleteNote_NotFound(t *testing.T) {
	db := setupTestDB(t)
	seedNoteUsers(t, db)

	router := setupTestRouter()
	router.DELETE("/notes/:id",
		mockAuthMiddleware("auth0|mgr", "manager", "12", ""),
		middleware.RequireRole(),
		DeleteNote)

	w, _ := performJSON(router, http.MethodDelete, "/notes/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
