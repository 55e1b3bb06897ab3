package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/middleware"
	"github.com/storeline/training-tracker-api/models"
)

// CreateStoreRequest represents the request body for creating a store
type CreateStoreRequest struct {
	ID      string `json:"id" binding:"required"`
	Number  int    `json:"number"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// CreateStore handles POST /api/v1/stores - creates a store (admins only)
func CreateStore(c *gin.Context) {
	var req CreateStoreRequest
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

	store := models.Store{
		ID:      req.ID,
		Number:  req.Number,
		Name:    req.Name,
		Address: req.Address,
	}

	db := config.GetDB()
	if err := db.Create(&store).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create store",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    store,
	})
}

// ListStores handles GET /api/v1/stores - lists all stores (admins only)
func ListStores(c *gin.Context) {
	var stores []models.Store
	if err := config.GetDB().Order("id").Find(&stores).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list stores",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stores,
	})
}

// GetStoreEmployees handles GET /api/v1/stores/:id/employees - lists the
// manager/supervisor roster of a store. Managers and supervisors can only
// read their own store's roster; admins can read any.
func GetStoreEmployees(c *gin.Context) {
	storeID := c.Param("id")
	if !canReadStore(c, storeID) {
		return
	}

	var entries []models.StoreEmployee
	if err := config.GetDB().
		Where("store_id = ? AND active = ?", storeID, true).
		Order("created_at").Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list store employees",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// GetStoreTrainees handles GET /api/v1/stores/:id/trainees - lists the
// trainee roster of a store, same scoping rules as the employee roster
func GetStoreTrainees(c *gin.Context) {
	storeID := c.Param("id")
	if !canReadStore(c, storeID) {
		return
	}

	var entries []models.StoreTrainee
	if err := config.GetDB().
		Where("store_id = ? AND active = ?", storeID, true).
		Order("created_at").Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list store trainees",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// canReadStore enforces store scoping for roster reads and writes the
// denial response when scoping fails
func canReadStore(c *gin.Context, storeID string) bool {
	role := middleware.GetResolvedRole(c)
	if role == models.RoleAdmin {
		return true
	}

	if middleware.GetResolvedStoreID(c) != storeID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You can only access your own store",
			},
		})
		c.Abort()
		return false
	}
	return true
}
