package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/middleware"
	"github.com/storeline/training-tracker-api/models"
	"github.com/storeline/training-tracker-api/services"
	"github.com/storeline/training-tracker-api/utils"
	"gorm.io/gorm/clause"
)

// UpsertProgressRequest represents the request body for recording progress
// on a weekly training task
type UpsertProgressRequest struct {
	Week      int    `json:"week" binding:"required,gt=0"`
	TaskID    string `json:"task_id" binding:"required"`
	Completed bool   `json:"completed"`
}

// UpsertProgress handles PUT /api/v1/progress - records the caller's
// completion state for one weekly task. Repeated calls merge into the same
// record.
func UpsertProgress(c *gin.Context) {
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

	var req UpsertProgressRequest
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

	storeID := middleware.GetResolvedStoreID(c)

	record := models.ProgressRecord{
		UID:       uid,
		StoreID:   storeID,
		Week:      req.Week,
		TaskID:    req.TaskID,
		Completed: req.Completed,
	}

	updates := map[string]interface{}{
		"completed":  req.Completed,
		"store_id":   storeID,
		"updated_at": time.Now(),
	}
	if req.Completed {
		now := time.Now()
		record.CompletedAt = &now
		updates["completed_at"] = now
	} else {
		updates["completed_at"] = nil
	}

	db := config.GetDB()
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}, {Name: "week"}, {Name: "task_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&record).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to record progress",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// GetProgress handles GET /api/v1/progress/:uid - lists a user's progress
// records. Users read their own; supervisors and managers read trainees at
// their store; admins read anyone.
func GetProgress(c *gin.Context) {
	callerUID, err := middleware.GetUserID(c)
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

	targetUID := c.Param("uid")
	role := middleware.GetResolvedRole(c)

	canRead := targetUID == callerUID || role == models.RoleAdmin
	if !canRead && models.IsStaffRole(role) {
		// Staff can read progress for users at their own store
		var target models.User
		if err := config.GetDB().Where("uid = ?", targetUID).First(&target).Error; err == nil {
			canRead = target.StoreID != nil &&
				*target.StoreID == middleware.GetResolvedStoreID(c)
		}
	}

	if !canRead {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view this progress",
			},
		})
		return
	}

	var records []models.ProgressRecord
	if err := config.GetDB().
		Where("uid = ?", targetUID).
		Order("week, task_id").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list progress records",
			},
		})
		return
	}

	// Attach presigned URLs for any evidence photos
	if evidence := services.GetEvidenceService(); evidence != nil {
		for i := range records {
			if records[i].EvidenceS3Key == nil {
				continue
			}
			url, urlErr := evidence.GetPhotoURL(*records[i].EvidenceS3Key)
			if urlErr != nil {
				log.Printf("Failed to generate evidence URL for record %d: %v", records[i].ID, urlErr)
				continue
			}
			records[i].EvidenceURL = &url
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
	})
}

// UploadEvidence handles POST /api/v1/progress/:id/evidence - attaches a
// photo to one of the caller's progress records
func UploadEvidence(c *gin.Context) {
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
	var record models.ProgressRecord
	if err := db.First(&record, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROGRESS_NOT_FOUND",
				"message": "Progress record not found",
			},
		})
		return
	}

	if record.UID != uid {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You can only attach evidence to your own progress",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A photo file is required",
			},
		})
		return
	}

	photoKey, err := services.GetEvidenceService().UploadPhoto(fileHeader)
	if err != nil {
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_ERROR",
				"message": "Failed to upload evidence photo",
			},
		})
		return
	}

	// Replace any previous evidence photo
	oldKey := record.EvidenceS3Key

	if err := db.Model(&record).Update("evidence_s3_key", photoKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save evidence reference",
			},
		})
		return
	}

	if oldKey != nil && *oldKey != photoKey {
		if delErr := services.GetEvidenceService().DeletePhoto(*oldKey); delErr != nil {
			log.Printf("Failed to delete replaced evidence photo %s: %v", *oldKey, delErr)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}
