package app

import (
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
	"github.com/yungbote/voter-canvass-backend/internal/services"
	"github.com/yungbote/voter-canvass-backend/internal/sse"
)

type Services struct {
	Notifier     services.JobNotifier
	Orchestrator orchestrator.Orchestrator
}

func wireServices(log *logger.Logger, repos Repos, brk broker.Broker, sseHub *sse.SSEHub) Services {
	log.Info("Wiring services...")
	notifier := services.NewJobNotifier(sseHub)
	orch := orchestrator.New(repos.Jobs, brk, notifier, log)
	return Services{
		Notifier:     notifier,
		Orchestrator: orch,
	}
}
