package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the cache with a shared Redis instance so multiple
// gateway replicas see the same province cache.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to the Redis instance at addr.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Get implements Store.
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := rs.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

// Set implements Store. Entries carry no Redis-level TTL; expiry is the
// caller's policy, judged from the stored timestamp.
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := rs.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (rs *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := rs.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping implements Store.
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (rs *RedisStore) Close() error {
	return rs.rdb.Close()
}
