package prayer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions selects the Redis server backing RedisCache.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// RedisCache shares fetched timings between server instances.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (Timings, bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var timings Timings
	if err := json.Unmarshal(data, &timings); err != nil {
		return nil, false, fmt.Errorf("decode cached timings: %w", err)
	}
	return timings, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, timings Timings, ttl time.Duration) error {
	data, err := json.Marshal(timings)
	if err != nil {
		return fmt.Errorf("encode timings: %w", err)
	}
	if err := r.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
