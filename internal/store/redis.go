package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// RedisStore keeps snapshots under a cartsync: prefix. TTL is zero by
// default: carts outlive any session and expiry is the server's job.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// WithTTL returns a copy that expires snapshots after d.
func (r *RedisStore) WithTTL(d time.Duration) *RedisStore {
	return &RedisStore{client: r.client, ttl: d}
}

func (r *RedisStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisStore) Write(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, redisKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return fmt.Sprintf("cartsync:%s", key)
}
