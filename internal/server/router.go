package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/voter-canvass-backend/internal/handlers"
	"github.com/yungbote/voter-canvass-backend/internal/middleware"
)

// RouterConfig wires the control plane surface of spec §6: generic job
// control, the geocoding convenience endpoint, and the voter-import
// multipart upload endpoint, all behind the same bearer-auth middleware.
type RouterConfig struct {
	AuthMiddleware *middleware.AuthMiddleware

	JobsHandler        *handlers.JobsHandler
	GeocodingHandler   *handlers.GeocodingHandler
	VoterImportHandler *handlers.VoterImportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Always attach request-scoped context helpers (TraceData)
	router.Use(middleware.AttachRequestContext())

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	api.POST("/jobs", cfg.JobsHandler.CreateJob)
	api.GET("/jobs", cfg.JobsHandler.ListJobs)
	api.GET("/jobs/:id", cfg.JobsHandler.GetJobByID)
	api.DELETE("/jobs/:id", cfg.JobsHandler.CancelPendingJob)
	api.POST("/jobs/:id/control", cfg.JobsHandler.Control)

	api.POST("/geocoding-jobs", cfg.GeocodingHandler.Create)

	api.POST("/voter-import-jobs", cfg.VoterImportHandler.Create)

	return router
}










