package app

import (
	"strings"
	"os"
	"time"

	"github.com/yungbote/voter-canvass-backend/internal/platform/envutil"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// Config is every environment-derived setting the composition root needs
// beyond what PostgresService reads for itself. Pool sizes are fallback
// defaults only: the persisted PoolConfig row (internal/data/repos/jobs.PoolConfigRepo)
// is authoritative once the first row exists, per spec §4.3.
type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	QueueBroker string // "memory" or "redis"
	RedisAddr   string

	UploadDir string

	DefaultImportWorkers    int
	DefaultGeocodeWorkers   int
	DefaultScheduledWorkers int
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := envString("JWT_SECRET_KEY", "defaultsecret")
	accessTokenTTLSeconds := envutil.Int("ACCESS_TOKEN_TTL", 3600)
	refreshTokenTTLSeconds := envutil.Int("REFRESH_TOKEN_TTL", 86400)

	cfg := Config{
		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,

		QueueBroker: strings.ToLower(envString("QUEUE_BROKER", "memory")),
		RedisAddr:   envString("REDIS_ADDR", ""),

		UploadDir: envString("UPLOAD_DIR", "./tmp/uploads"),

		DefaultImportWorkers:    envutil.Int("IMPORT_WORKERS", 2),
		DefaultGeocodeWorkers:   envutil.Int("GEOCODE_WORKERS", 4),
		DefaultScheduledWorkers: envutil.Int("SCHEDULED_WORKERS", 2),
	}
	if cfg.QueueBroker == "redis" && cfg.RedisAddr == "" {
		log.Warn("QUEUE_BROKER=redis set but REDIS_ADDR is empty; falling back to memory broker")
		cfg.QueueBroker = "memory"
	}
	return cfg
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
