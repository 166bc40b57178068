package http

import (
	"github.com/gin-gonic/gin"
	"github.com/shopmate/backend/config"
	"github.com/sirupsen/logrus"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log logrus.FieldLogger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(RecoveryMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/stores", handler.ListStores)
		v1.POST("/search", handler.Search)
		v1.POST("/optimize", handler.Optimize)
		v1.POST("/resolve", handler.Resolve)
		v1.GET("/metrics", handler.Metrics)

		trips := v1.Group("/trips")
		{
			trips.POST("/plan", handler.PlanTrip)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:id/prices", handler.SessionPrices)
			sessions.DELETE("/:id", handler.DeleteSession)
		}
	}

	return router
}
