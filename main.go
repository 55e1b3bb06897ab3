package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/storeline/training-tracker-api/config"
	"github.com/storeline/training-tracker-api/controllers"
	"github.com/storeline/training-tracker-api/middleware"
	"github.com/storeline/training-tracker-api/models"
	"github.com/storeline/training-tracker-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting Training Tracker API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.StoreEmployee{},
		&models.StoreTrainee{},
		&models.Invite{},
		&models.ProgressRecord{},
		&models.Note{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize the Auth0 service used for userinfo and claim management
	services.InitAuth0Service(cfg)

	// Initialize S3-backed evidence photo storage when configured
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitEvidenceService(s3Service)
		log.Println("Evidence photo storage initialized")
	} else {
		log.Println("AWS_S3_BUCKET not set, evidence photo uploads disabled")
	}

	router := setupRouter(cfg)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires middleware and routes onto a Gin engine
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// All remaining routes require a valid token
		auth := v1.Group("")
		auth.Use(middleware.EnsureValidToken(cfg))
		{
			// Session resolution: profile + store membership reconciliation
			auth.POST("/session", controllers.ResolveSession)

			// Profiles
			auth.POST("/users", controllers.CreateUser)
			auth.GET("/users/me", controllers.GetMyProfile)
			auth.PUT("/users/me", controllers.UpdateMyProfile)

			// Invites
			auth.POST("/invites", middleware.RequireRole(models.RoleManager, models.RoleAdmin), controllers.CreateInvite)
			auth.POST("/invites/redeem", controllers.RedeemInvite)

			// Stores and rosters
			auth.POST("/stores", middleware.RequireRole(models.RoleAdmin), controllers.CreateStore)
			auth.GET("/stores", middleware.RequireRole(models.RoleAdmin), controllers.ListStores)
			auth.GET("/stores/:id/employees",
				middleware.RequireRole(models.RoleManager, models.RoleSupervisor, models.RoleAdmin),
				controllers.GetStoreEmployees)
			auth.GET("/stores/:id/trainees",
				middleware.RequireRole(models.RoleManager, models.RoleSupervisor, models.RoleAdmin),
				controllers.GetStoreTrainees)

			// Assignments and role toggles
			auth.POST("/assignments", middleware.RequireRole(models.RoleManager), controllers.AssignSupervisor)
			auth.POST("/assignments/promote", middleware.RequireRole(models.RoleManager), controllers.PromoteToSupervisor)
			auth.POST("/assignments/demote", middleware.RequireRole(models.RoleManager), controllers.DemoteToEmployee)

			// Admin endpoints
			auth.POST("/admin/claims", middleware.RequireRole(models.RoleAdmin), controllers.AssignClaims)
			auth.POST("/admin/employees", middleware.RequireRole(models.RoleAdmin), controllers.CreateEmployee)
			auth.POST("/admin/deactivate", middleware.RequireRole(models.RoleAdmin), controllers.DeactivateUser)

			// Notes
			auth.POST("/notes", controllers.SendNote)
			auth.GET("/notes", controllers.ListMyNotes)
			auth.DELETE("/notes/:id", middleware.RequireRole(), controllers.DeleteNote)

			// Training progress
			auth.PUT("/progress", middleware.RequireRole(models.RoleTrainee, models.RoleEmployee), controllers.UpsertProgress)
			auth.GET("/progress/:uid", middleware.RequireRole(), controllers.GetProgress)
			auth.POST("/progress/:id/evidence", controllers.UploadEvidence)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Training Tracker API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
