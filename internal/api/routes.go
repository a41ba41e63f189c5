package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(Logger(logger))

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.POST("/fetch", handler.Fetch)
		v1.GET("/summary", handler.GetSummary)
		v1.GET("/notices", handler.GetNotices)

		repos := v1.Group("/repos")
		{
			repos.GET("", handler.ListRepos)
			repos.GET("/:id/trend", handler.GetTrend)
			repos.GET("/:id/contributors", handler.GetContributors)
		}

		trends := v1.Group("/trends")
		{
			trends.GET("", handler.ListTrends)
			trends.POST("", handler.RunTrends)
		}

		exports := v1.Group("/export")
		{
			exports.GET("/json", handler.ExportJSON)
			exports.GET("/csv", handler.ExportCSV)
		}
	}

	return router
}
