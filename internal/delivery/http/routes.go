package http

import (
	"github.com/gin-gonic/gin"

	"github.com/TVimala/Packaged-Food-Rating-App/config"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
)

// SetupRouter creates and configures the Gin router. Closing stop releases
// the rate limiter's background sweep.
func SetupRouter(cfg *config.Config, handler *Handler, stop <-chan struct{}) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	logger := logging.New("http")

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	if cfg.RateLimit.PerIP > 0 {
		v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst, stop))
	}
	{
		products := v1.Group("/products")
		{
			products.GET("/search", handler.SearchProducts)
			products.GET("/:barcode/score", handler.GetProductScore)
		}

		score := v1.Group("/score")
		{
			score.POST("/record", handler.ScoreRecord)
			score.POST("/text", handler.ScoreText)
			score.POST("/image", handler.ScoreImage)
			score.POST("/batch", handler.ScoreBatch)
			score.POST("/nutrients", handler.ScoreNutrients)
		}

		v1.POST("/ingredients/normalize", handler.NormalizeIngredients)
		v1.GET("/policy", handler.GetPolicy)
	}

	return router
}
