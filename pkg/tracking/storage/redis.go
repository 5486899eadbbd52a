package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/rpcgate/rpcgate/pkg/tracking"
)

// Hash field suffixes.
const (
	suffixSuccessful = "s"
	suffixFailed     = "f"
)

// DefaultScanCount is the HSCAN page size hint.
const DefaultScanCount = 100

// RedisRepository stores statistics in one Redis hash per IP.
type RedisRepository struct {
	client    redis.UniversalClient
	prefix    string
	scanCount int64
}

// NewRedisRepository creates a repository on client. The client is not
// closed by Close.
func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	return &RedisRepository{
		client:    client,
		prefix:    prefix,
		scanCount: DefaultScanCount,
	}
}

func (r *RedisRepository) key(ip string) string {
	return r.prefix + ":" + ip
}

func field(method, suffix string) string {
	return method + ":" + suffix
}

// Increment implements tracking.Repository. All increments run in a single
// MULTI/EXEC transaction.
func (r *RedisRepository) Increment(ctx context.Context, changes []tracking.Change) error {
	queued := 0
	for _, c := range changes {
		if !c.IsZero() {
			queued++
		}
	}
	if queued == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, c := range changes {
			key := r.key(c.IP)
			if c.SuccessfulCalls != 0 {
				pipe.HIncrBy(ctx, key, field(c.Method, suffixSuccessful), c.SuccessfulCalls)
			}
			if c.FailedCalls != 0 {
				pipe.HIncrBy(ctx, key, field(c.Method, suffixFailed), c.FailedCalls)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("hincrby: %w", err)
	}
	return nil
}

// FindByIPAndMethod implements tracking.Repository.
func (r *RedisRepository) FindByIPAndMethod(ctx context.Context, ip, method string) (*tracking.TrackedCall, error) {
	vals, err := r.client.HMGet(ctx, r.key(ip), field(method, suffixSuccessful), field(method, suffixFailed)).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget: %w", err)
	}
	if vals[0] == nil && vals[1] == nil {
		return nil, tracking.ErrNotFound
	}

	successful, err := parseCount(vals[0])
	if err != nil {
		return nil, err
	}
	failed, err := parseCount(vals[1])
	if err != nil {
		return nil, err
	}

	return &tracking.TrackedCall{
		IP:              ip,
		Method:          method,
		SuccessfulCalls: successful,
		FailedCalls:     failed,
	}, nil
}

// FindByIP implements tracking.Repository. The hash is read incrementally
// with HSCAN until the cursor returns to zero.
func (r *RedisRepository) FindByIP(ctx context.Context, ip string) (*tracking.CallsOfUser, error) {
	key := r.key(ip)
	fields := make(map[string]string)

	var cursor uint64
	for {
		kvs, next, err := r.client.HScan(ctx, key, cursor, "", r.scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("hscan: %w", err)
		}
		for i := 0; i+1 < len(kvs); i += 2 {
			fields[kvs[i]] = kvs[i+1]
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(fields) == 0 {
		return nil, tracking.ErrNotFound
	}

	calls := &tracking.CallsOfUser{IP: ip, Methods: make(map[string]tracking.MethodCalls)}
	for f, v := range fields {
		// Method names may contain ':'; the suffix never does.
		idx := strings.LastIndexByte(f, ':')
		if idx < 0 {
			continue
		}
		method, suffix := f[:idx], f[idx+1:]

		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f, err)
		}

		mc := calls.Methods[method]
		switch suffix {
		case suffixSuccessful:
			mc.SuccessfulCalls = n
		case suffixFailed:
			mc.FailedCalls = n
		default:
			continue
		}
		calls.Methods[method] = mc
	}

	if len(calls.Methods) == 0 {
		return nil, tracking.ErrNotFound
	}
	return calls, nil
}

// DeleteByIP implements tracking.Repository.
func (r *RedisRepository) DeleteByIP(ctx context.Context, ip string) (bool, error) {
	n, err := r.client.Del(ctx, r.key(ip)).Result()
	if err != nil {
		return false, fmt.Errorf("del: %w", err)
	}
	return n > 0, nil
}

// Ping implements tracking.Repository.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close implements tracking.Repository. The shared client stays open.
func (r *RedisRepository) Close() error {
	return nil
}

func parseCount(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed counter %q: %w", s, err)
	}
	return n, nil
}
