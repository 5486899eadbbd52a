package storage

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rpcgate/rpcgate/pkg/config"
	"github.com/rpcgate/rpcgate/pkg/tracking"
)

// Backend names accepted by Open.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates the repository selected by cfg.Backend. The redis client is
// only used by the redis backend and may be nil otherwise.
func Open(cfg config.CallTrackingConfig, client redis.UniversalClient) (tracking.Repository, error) {
	switch cfg.Backend {
	case BackendRedis, "":
		if client == nil {
			return nil, fmt.Errorf("redis backend requires a redis client")
		}
		return NewRedisRepository(client, cfg.KeyPrefix), nil
	case BackendSQLite:
		return NewSQLiteRepository(SQLiteConfig{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
	case BackendMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown call tracking backend %q", cfg.Backend)
	}
}
