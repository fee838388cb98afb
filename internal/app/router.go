package app

import (
	"github.com/gin-gonic/gin"
	"github.com/yungbote/voter-canvass-backend/internal/server"
)

func wireRouter(handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:     middleware.Auth,
		JobsHandler:        handlers.Jobs,
		GeocodingHandler:   handlers.Geocoding,
		VoterImportHandler: handlers.VoterImport,
	})
}
