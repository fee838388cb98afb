package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// Clients holds the one optional external client this service depends on.
// Grounded on the teacher's realtime/bus.NewRedisBus: a plain go-redis
// client, dialed and pinged once at startup, closed on shutdown.
type Clients struct {
	Redis *goredis.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients
	if cfg.QueueBroker != "redis" {
		return out, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("redis ping: %w", err)
	}
	out.Redis = rdb
	return out, nil
}

func (c *Clients) Close() {
	if c == nil || c.Redis == nil {
		return
	}
	_ = c.Redis.Close()
	c.Redis = nil
}
