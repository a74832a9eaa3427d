package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter creates and configures the Gin engine
func NewRouter(handler *ModerationHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(RequestID())
	router.Use(Logger(logger))
	router.Use(Recovery(logger))
	router.Use(CORS())

	// Health and metrics
	router.GET("/health", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.POST("/moderate", handler.Moderate)
		v1.GET("/cache/stats", handler.CacheStats)
		v1.DELETE("/cache", handler.ClearCache)
	}

	return router
}
