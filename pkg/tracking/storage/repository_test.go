package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcgate/rpcgate/pkg/config"
	"github.com/rpcgate/rpcgate/pkg/tracking"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, client
}

func repositories(t *testing.T) map[string]tracking.Repository {
	t.Helper()

	_, client := newRedis(t)

	sqliteRepo, err := NewSQLiteRepository(SQLiteConfig{Path: filepath.Join(t.TempDir(), "calls.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteRepo.Close() })

	return map[string]tracking.Repository{
		"redis":  NewRedisRepository(client, "trck"),
		"sqlite": sqliteRepo,
		"memory": NewMemoryRepository(),
	}
}

func TestRepository_RoundTrip(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, repo.Increment(ctx, []tracking.Change{
				{IP: "1.2.3.4", Method: "eth_call", SuccessfulCalls: 2, FailedCalls: 1},
				{IP: "1.2.3.4", Method: "eth_getBalance", SuccessfulCalls: 1},
				{IP: "5.6.7.8", Method: "eth_call", FailedCalls: 4},
			}))
			require.NoError(t, repo.Increment(ctx, []tracking.Change{
				{IP: "1.2.3.4", Method: "eth_call", SuccessfulCalls: 3},
			}))

			call, err := repo.FindByIPAndMethod(ctx, "1.2.3.4", "eth_call")
			require.NoError(t, err)
			assert.Equal(t, &tracking.TrackedCall{IP: "1.2.3.4", Method: "eth_call", SuccessfulCalls: 5, FailedCalls: 1}, call)

			call, err = repo.FindByIPAndMethod(ctx, "1.2.3.4", "eth_getBalance")
			require.NoError(t, err)
			assert.Zero(t, call.FailedCalls)

			user, err := repo.FindByIP(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.Equal(t, map[string]tracking.MethodCalls{
				"eth_call":       {SuccessfulCalls: 5, FailedCalls: 1},
				"eth_getBalance": {SuccessfulCalls: 1},
			}, user.Methods)

			deleted, err := repo.DeleteByIP(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.True(t, deleted)

			_, err = repo.FindByIP(ctx, "1.2.3.4")
			assert.ErrorIs(t, err, tracking.ErrNotFound)
			_, err = repo.FindByIPAndMethod(ctx, "1.2.3.4", "eth_call")
			assert.ErrorIs(t, err, tracking.ErrNotFound)

			deleted, err = repo.DeleteByIP(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.False(t, deleted)

			other, err := repo.FindByIP(ctx, "5.6.7.8")
			require.NoError(t, err)
			assert.Equal(t, int64(4), other.Methods["eth_call"].FailedCalls)

			assert.NoError(t, repo.Ping(ctx))
		})
	}
}

func TestRepository_EmptyAndZeroChanges(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Increment(ctx, nil))
			require.NoError(t, repo.Increment(ctx, []tracking.Change{{IP: "1.2.3.4", Method: "m"}}))

			_, err := repo.FindByIP(ctx, "1.2.3.4")
			assert.ErrorIs(t, err, tracking.ErrNotFound)
		})
	}
}

func TestRepository_ManyMethods(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var changes []tracking.Change
			for i := 0; i < 250; i++ {
				changes = append(changes, tracking.Change{IP: "1.2.3.4", Method: fmt.Sprintf("m%03d", i), SuccessfulCalls: 1})
			}
			require.NoError(t, repo.Increment(ctx, changes))

			user, err := repo.FindByIP(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.Len(t, user.Methods, 250)
		})
	}
}

func TestRedisRepository_KeyLayout(t *testing.T) {
	m, client := newRedis(t)
	repo := NewRedisRepository(client, "trck")
	ctx := context.Background()

	require.NoError(t, repo.Increment(ctx, []tracking.Change{
		{IP: "1.2.3.4", Method: "ns:method", SuccessfulCalls: 2},
	}))

	assert.Equal(t, "2", m.HGet("trck:1.2.3.4", "ns:method:s"))
	assert.Empty(t, m.HGet("trck:1.2.3.4", "ns:method:f"), "zero deltas are not written")

	user, err := repo.FindByIP(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.Methods["ns:method"].SuccessfulCalls)
}

func TestRedisRepository_Errors(t *testing.T) {
	m, client := newRedis(t)
	repo := NewRedisRepository(client, "trck")
	m.Close()

	ctx := context.Background()
	assert.Error(t, repo.Increment(ctx, []tracking.Change{{IP: "a", Method: "b", SuccessfulCalls: 1}}))
	_, err := repo.FindByIP(ctx, "a")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, tracking.ErrNotFound)
}

func TestOpen(t *testing.T) {
	_, client := newRedis(t)

	repo, err := Open(config.CallTrackingConfig{Backend: BackendRedis, KeyPrefix: "trck"}, client)
	require.NoError(t, err)
	assert.IsType(t, &RedisRepository{}, repo)

	_, err = Open(config.CallTrackingConfig{Backend: BackendRedis}, nil)
	assert.Error(t, err)

	repo, err = Open(config.CallTrackingConfig{Backend: BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryRepository{}, repo)

	repo, err = Open(config.CallTrackingConfig{
		Backend: BackendSQLite,
		SQLite:  config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "nested", "calls.db")},
	}, nil)
	require.NoError(t, err)
	assert.NoError(t, repo.Close())

	_, err = Open(config.CallTrackingConfig{Backend: "cassandra"}, nil)
	assert.Error(t, err)
}
