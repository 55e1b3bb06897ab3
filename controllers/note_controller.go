package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/middleware"
	"github.com/storeline/training-tracker-api/models"
)

// SendNoteRequest represents the request body for sending a note
type SendNoteRequest struct {
	RecipientUID string `json:"recipient_uid" binding:"required"`
	Text         string `json:"text" binding:"required"`
}

// SendNote handles POST /api/v1/notes - sends a short note to another user
// at the same store. Trainees can only write to their supervisors and
// managers; staff can write to anyone on their store's rosters.
func SendNote(c *gin.Context) {
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

	db := config.GetDB()
	var sender models.User
	if err := db.Where("uid = ?", uid).First(&sender).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return
	}

	if sender.StoreID == nil {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You are not assigned to a store yet",
			},
		})
		return
	}

	var req SendNoteRequest
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

	var recipient models.User
	if err := db.Where("uid = ?", req.RecipientUID).First(&recipient).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RECIPIENT_NOT_FOUND",
				"message": "Recipient profile not found",
			},
		})
		return
	}

	// Authorization check: sender and recipient must share a store, and
	// trainees may only write upward to supervisors/managers
	canSend := recipient.StoreID != nil && *recipient.StoreID == *sender.StoreID
	if canSend && sender.Role == models.RoleTrainee {
		canSend = models.IsStaffRole(recipient.Role)
	}

	if !canSend {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to send a note to this user",
			},
		})
		return
	}

	note := models.Note{
		StoreID:      *sender.StoreID,
		SenderUID:    sender.UID,
		RecipientUID: recipient.UID,
		Text:         req.Text,
	}

	if err := db.Create(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create note",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    note,
	})
}

// ListMyNotes handles GET /api/v1/notes - lists notes the caller sent or
// received, newest first
func ListMyNotes(c *gin.Context) {
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

	var notes []models.Note
	if err := config.GetDB().
		Where("sender_uid = ? OR recipient_uid = ?", uid, uid).
		Order("created_at DESC").Find(&notes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list notes",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    notes,
	})
}

// DeleteNote handles DELETE /api/v1/notes/:id - removes a note. Only the
// sender, or a manager of the note's store, can remove it.
func DeleteNote(c *gin.Context) {
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

	db := config.GetDB()
	var note models.Note
	if err := db.First(&note, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOTE_NOT_FOUND",
				"message": "Note not found",
			},
		})
		return
	}

	canDelete := note.SenderUID == uid
	if !canDelete {
		role := middleware.GetResolvedRole(c)
		canDelete = role == models.RoleManager &&
			middleware.GetResolvedStoreID(c) == note.StoreID
	}

	if !canDelete {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to delete this note",
			},
		})
		return
	}

	if err := db.Delete(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete note",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id": note.ID,
		},
	})
}
