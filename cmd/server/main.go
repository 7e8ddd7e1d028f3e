package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/api/handlers"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/api/middleware"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/config"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database connections
	db := database.InitDB(cfg)
	redisClient := database.InitRedis(cfg)

	// Setup and run the server
	r := setupRouter(db, redisClient, cfg)
	port := cfg.ServerPort

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func setupRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// Configure CORS middleware
	headers := cors.DefaultConfig()
	headers.AllowOrigins = []string{cfg.FrontendURL}
	headers.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	headers.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-DeepSeek-API-Key"}
	headers.ExposeHeaders = []string{"Content-Length"}
	headers.AllowCredentials = true
	r.Use(cors.New(headers))

	// Initialize handlers and middleware with dependencies
	handler := handlers.NewHandler(db, redisClient, cfg)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", handler.RegisterHandler)
			authGroup.POST("/login", handler.LoginHandler)
		}

		// Session routes - protected by authentication
		sessions := api.Group("/sessions", authMiddleware.AuthMiddleware())
		{
			sessions.GET("", handler.ListSessionsHandler)
			sessions.POST("", handler.CreateSessionHandler)
			// Fixed paths before the :id routes so gin does not treat
			// them as session ids.
			sessions.DELETE("/delete-all", handler.DeleteAllSessionsHandler)
			sessions.GET("/export-data", handler.ExportSessionsHandler)
			sessions.GET("/:id", handler.GetSessionHandler)
			sessions.PATCH("/:id", handler.UpdateSessionHandler)
			sessions.DELETE("/:id", handler.DeleteSessionHandler)
			sessions.POST("/:id/messages-stream", handler.StreamMessageHandler)
			sessions.POST("/:id/regenerate", handler.RegenerateHandler)
		}

		// DeepSeek account routes - protected by authentication
		deepseek := api.Group("/deepseek", authMiddleware.AuthMiddleware())
		{
			deepseek.POST("/check-usage", handler.CheckUsageHandler)
		}
	}

	return r
}
