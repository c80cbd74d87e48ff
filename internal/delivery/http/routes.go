package http

import (
	"github.com/allerscan/backend/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		allergens := v1.Group("/allergens")
		{
			allergens.POST("/analyze", handler.AnalyzeAllergens)
		}

		cases := v1.Group("/cases")
		{
			cases.POST("/search", handler.SearchCases)
			cases.GET("/history/:recipeId", handler.CaseHistory)
		}

		v1.GET("/progress/:jobId", handler.StreamProgress)
	}

	return router
}
