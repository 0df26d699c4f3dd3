package cache

import (
	"context"
	"time"
)

// Store is the cache capability consumed by application services.
type Store[V any] interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) (V, bool, error)

	// Put stores value under key for ttl.
	Put(ctx context.Context, key string, value V, ttl time.Duration) error

	// Remember returns the cached value or runs compute on a miss and stores
	// its result. Errors from compute are returned and never cached.
	Remember(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (V, error)) (V, error)

	// Forget removes key. Removing a missing key is not an error.
	Forget(ctx context.Context, key string) (bool, error)
}

// MemoryStore is a process-local Store.
type MemoryStore[V any] struct {
	cache   *Cache[string, V]
	flights flights
}

var _ Store[[]string] = (*MemoryStore[[]string])(nil)

// NewMemoryStore creates a MemoryStore with a janitor running every cleanupInterval.
func NewMemoryStore[V any](cleanupInterval time.Duration) *MemoryStore[V] {
	return &MemoryStore[V]{
		cache: New[string, V](cleanupInterval),
	}
}

func (s *MemoryStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	v, ok := s.cache.Get(ctx, key)
	return v, ok, nil
}

func (s *MemoryStore[V]) Put(ctx context.Context, key string, value V, ttl time.Duration) error {
	s.cache.Set(ctx, key, value, ttl)
	return nil
}

func (s *MemoryStore[V]) Remember(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := s.cache.Get(ctx, key); ok {
		return v, nil
	}
	return remember(ctx, &s.flights, s, key, ttl, compute, nil)
}

func (s *MemoryStore[V]) Forget(ctx context.Context, key string) (bool, error) {
	return s.cache.Delete(ctx, key), nil
}

// Close stops the underlying janitor.
func (s *MemoryStore[V]) Close() {
	s.cache.Close()
}

// remember collapses concurrent misses for key into one compute call. A
// failed write does not fail the caller: the computed value is still returned
// and the error goes to onPutErr.
func remember[V any](
	ctx context.Context,
	f *flights,
	store Store[V],
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) (V, error),
	onPutErr func(error),
) (V, error) {
	v, err := f.do(ctx, key, func(ctx context.Context) (any, error) {
		value, err := compute(ctx)
		if err != nil {
			return value, err
		}
		if err := store.Put(ctx, key, value, ttl); err != nil && onPutErr != nil {
			onPutErr(err)
		}
		return value, nil
	})

	typed, _ := v.(V)
	if err != nil {
		var zero V
		return zero, err
	}
	return typed, nil
}
