package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

const defaultKeyPrefix = "arbitrage:"

// RedisStore is a Store backed by Redis. Values are JSON encoded.
type RedisStore[V any] struct {
	client  redis.UniversalClient
	prefix  string
	logger  logger.LoggerInterface
	flights flights
}

var _ Store[[]string] = (*RedisStore[[]string])(nil)

// RedisOption configures a RedisStore.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix string
}

// WithKeyPrefix overrides the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore[V any](client redis.UniversalClient, log logger.LoggerInterface, opts ...RedisOption) *RedisStore[V] {
	o := redisOptions{prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	return &RedisStore[V]{
		client: client,
		prefix: o.prefix,
		logger: log,
	}
}

func (s *RedisStore[V]) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, true, nil
}

// Put writes the whole value with a single SET, so readers never observe a
// partial entry.
func (s *RedisStore[V]) Put(ctx context.Context, key string, value V, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore[V]) Remember(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (V, error)) (V, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		// A broken cache must not break the caller; fall through to compute.
		s.logger.Warn(ctx, "cache read failed", "key", key, "error", err)
	}
	if ok {
		return v, nil
	}

	return remember(ctx, &s.flights, s, key, ttl, compute, func(err error) {
		s.logger.Warn(ctx, "cache write failed", "key", key, "error", err)
	})
}

func (s *RedisStore[V]) Forget(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del %s: %w", key, err)
	}
	return n > 0, nil
}
