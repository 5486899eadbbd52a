package app

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rpcgate/rpcgate/pkg/config"
	"github.com/rpcgate/rpcgate/pkg/limits/storage"
	"github.com/rpcgate/rpcgate/pkg/tracking"
	trackingstorage "github.com/rpcgate/rpcgate/pkg/tracking/storage"
)

const memoryStoreCleanupInterval = time.Minute

// needsRedis reports whether any component is configured to use Redis.
func needsRedis(cfg *config.Config) bool {
	return cfg.Store.Backend == "redis" ||
		cfg.CallTracking.Backend == trackingstorage.BackendRedis
}

// openCounterStore returns the store backing the rate limiters. client is
// nil unless Redis is configured.
func openCounterStore(cfg config.StoreConfig, client redis.UniversalClient) (storage.CounterStore, error) {
	switch cfg.Backend {
	case "redis":
		return storage.NewRedisCounterStore(client), nil
	case "memory":
		return storage.NewMemoryCounterStore(memoryStoreCleanupInterval), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// OpenRepository opens the call statistics repository outside of a running
// proxy. The returned close function releases the repository and any Redis
// client created for it.
func OpenRepository(cfg *config.Config) (tracking.Repository, func() error, error) {
	var client redis.UniversalClient
	if cfg.CallTracking.Backend == trackingstorage.BackendRedis {
		client = storage.NewRedisClient(cfg.Store.Redis)
	}

	repo, err := trackingstorage.Open(cfg.CallTracking, client)
	if err != nil {
		if client != nil {
			_ = client.Close()
		}
		return nil, nil, fmt.Errorf("failed to open call tracking repository: %w", err)
	}

	closeFn := func() error {
		err := repo.Close()
		if client != nil {
			if cerr := client.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		return err
	}
	return repo, closeFn, nil
}
