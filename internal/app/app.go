package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/voter-canvass-backend/internal/data/db"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/geocoding"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/importer"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/recovery"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/runtime"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/scheduled"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/worker"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
	"github.com/yungbote/voter-canvass-backend/internal/sse"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *sse.SSEHub

	broker  broker.Broker
	pools   *worker.Pools
	clients Clients
	cancel  context.CancelFunc
}

func New() (*App, error) {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	// Config
	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	// Postgres
	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	// Clients (optional Redis, only when QUEUE_BROKER=redis)
	clients, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init clients: %w", err)
	}

	// SSEHub
	ssehub := sse.NewSSEHub(log)
	// Repos
	reposet := wireRepos(theDB, log)
	// Broker
	brk := wireBroker(cfg, clients)
	// Services (Orchestrator, JobNotifier)
	serviceset := wireServices(log, reposet, brk, ssehub)

	// Importer, geocoding provider, and scheduled-task registries
	importers := wireImporters(reposet)
	geocoders := wireGeocodingProviders()
	scheduledTasks := wireScheduledTasks(reposet, geocoders)

	// Handler dispatch table shared by every worker pool
	registry := runtime.NewRegistry()
	if err := registry.Register(&importer.Pipeline{Registry: importers, Log: log}); err != nil {
		log.Sync()
		return nil, fmt.Errorf("register importer pipeline: %w", err)
	}
	if err := registry.Register(&geocoding.Pipeline{
		Households: reposet.Households,
		Providers:  reposet.Providers,
		Registry:   geocoders,
		Log:        log,
	}); err != nil {
		log.Sync()
		return nil, fmt.Errorf("register geocoding pipeline: %w", err)
	}
	if err := scheduledTasks.each(func(t scheduled.Task) error {
		return registry.Register(&scheduled.Dispatcher{Task: t, Log: log})
	}); err != nil {
		log.Sync()
		return nil, fmt.Errorf("register scheduled dispatchers: %w", err)
	}

	pools := worker.NewPools(brk, serviceset.Orchestrator, registry, log)

	// Handlers
	handlerset := wireHandlers(log, reposet, serviceset, brk, importers, cfg)
	// Middleware
	mw := wireMiddleware(log, cfg)
	// Router
	router := wireRouter(handlerset, mw)

	// App
	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		SSEHub:   ssehub,

		broker:  brk,
		pools:   pools,
		clients: clients,
	}, nil
}

// Start launches the recovery scan and all three worker pools, then
// returns immediately; pool sizes come from the persisted PoolConfig row
// when present, falling back to Config's env-var defaults (spec §4.3).
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := recovery.Run(ctx, a.Repos.Jobs, a.broker, a.Services.Orchestrator, a.Log); err != nil {
		a.Log.Error("recovery scan failed", "error", err)
	}

	importWorkers, geocodeWorkers, scheduledWorkers := a.poolSizes(ctx)
	a.pools.Start(ctx, importWorkers, geocodeWorkers, scheduledWorkers)
}

func (a *App) poolSizes(ctx context.Context) (int, int, int) {
	cfg, err := a.Repos.PoolConfig.Get(dbctx.Context{Ctx: ctx})
	if err != nil {
		a.Log.Warn("load pool config failed, using env defaults", "error", err)
	}
	if cfg == nil {
		return a.Cfg.DefaultImportWorkers, a.Cfg.DefaultGeocodeWorkers, a.Cfg.DefaultScheduledWorkers
	}
	return cfg.ImportWorkers, cfg.GeocodeWorkers, cfg.ScheduledWorkers
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}

// wireBroker picks the Broker implementation per Config.QueueBroker,
// defaulting to the in-memory implementation whenever Redis isn't wired.
func wireBroker(cfg Config, clients Clients) broker.Broker {
	if cfg.QueueBroker == "redis" && clients.Redis != nil {
		return broker.NewRedisBroker(clients.Redis)
	}
	return broker.NewMemoryBroker()
}

// wireImporters registers every known Importer format (component E).
func wireImporters(repos Repos) *importer.Registry {
	reg := importer.NewRegistry()
	_ = reg.Register(&importer.SimpleCSV{
		Persons:   repos.Persons,
		Addresses: repos.Addresses,
		Phones:    repos.Phones,
		Emails:    repos.Emails,
	})
	_ = reg.Register(&importer.ContraCosta{
		Persons:   repos.Persons,
		Addresses: repos.Addresses,
	})
	return reg
}

// wireGeocodingProviders registers every known geocoding Provider
// (component F). Provider enablement/priority is data (GeocodingProvider
// rows), not code; this registry only supplies implementations for
// whichever provider ids the config rows name.
func wireGeocodingProviders() *geocoding.Registry {
	reg := geocoding.NewRegistry()
	_ = reg.Register(geocoding.NewCensus())
	_ = reg.Register(geocoding.NewCatalog(nil))
	return reg
}

type scheduledTasks struct {
	tasks []scheduled.Task
}

func (s scheduledTasks) each(fn func(scheduled.Task) error) error {
	for _, t := range s.tasks {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

// wireScheduledTasks registers every known scheduled Task (spec §9).
func wireScheduledTasks(repos Repos, geocoders *geocoding.Registry) scheduledTasks {
	return scheduledTasks{tasks: []scheduled.Task{
		&scheduled.ProviderHealthCheck{Providers: repos.Providers, Registry: geocoders},
	}}
}
