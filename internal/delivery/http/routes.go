package http

import (
	"github.com/gin-gonic/gin"
	"github.com/nutrilog/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger.Named("access")))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		nutrition := v1.Group("/nutrition")
		{
			nutrition.POST("/search", handler.SearchNutrition)
		}

		servings := v1.Group("/servings")
		{
			servings.POST("/:id/import/preview", handler.PreviewImport)
			servings.POST("/:id/import", handler.ApplyImport)
		}

		v1.GET("/meals/:id/totals", handler.MealTotals)
		v1.GET("/users/:userId/days/:date", handler.DaySummary)
	}

	return router
}
