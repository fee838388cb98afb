package scheduled

import (
	"context"

	"github.com/yungbote/voter-canvass-backend/internal/data/repos"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/geocoding"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// TaskProviderHealthCheck is the one concrete scheduled task named in spec
// §9: it re-validates IsAvailable() for every enabled geocoding provider
// and logs the result. It never mutates provider config rows — a provider
// going unavailable is observed here, not auto-disabled; that decision
// stays with whoever manages the provider catalog.
const TaskProviderHealthCheck = "provider_health_check"

type ProviderHealthCheck struct {
	Providers repos.ProviderRepo
	Registry  *geocoding.Registry
}

func (t *ProviderHealthCheck) Name() string { return TaskProviderHealthCheck }

func (t *ProviderHealthCheck) Run(ctx context.Context, log *logger.Logger) error {
	configs, err := t.Providers.ListEnabled(dbctx.Context{Ctx: ctx})
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		p, ok := t.Registry.Get(cfg.ProviderID)
		if !ok {
			log.Warn("enabled provider has no registered implementation", "provider_id", cfg.ProviderID)
			continue
		}
		if p.IsAvailable(ctx) {
			log.Info("geocoding provider healthy", "provider_id", cfg.ProviderID)
		} else {
			log.Warn("geocoding provider unavailable", "provider_id", cfg.ProviderID)
		}
	}
	return nil
}
