package app

import (
	"github.com/yungbote/voter-canvass-backend/internal/handlers"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/importer"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

type Handlers struct {
	Jobs        *handlers.JobsHandler
	Geocoding   *handlers.GeocodingHandler
	VoterImport *handlers.VoterImportHandler
}

func wireHandlers(log *logger.Logger, repos Repos, services Services, brk broker.Broker, importers *importer.Registry, cfg Config) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Jobs:        handlers.NewJobsHandler(services.Orchestrator),
		Geocoding:   handlers.NewGeocodingHandler(services.Orchestrator, repos.Providers),
		VoterImport: handlers.NewVoterImportHandler(services.Orchestrator, brk, importers, cfg.UploadDir),
	}
}
