package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
)

type redisKeyValueStore struct {
	client *redis.Client
	prefix string
}

// NewRedisKeyValueStore Redis-backed key-value store. Keys are namespaced
// with prefix and never expire.
func NewRedisKeyValueStore(client *redis.Client, prefix string) repository.KeyValueStore {
	return &redisKeyValueStore{
		client: client,
		prefix: prefix,
	}
}

func (r *redisKeyValueStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", entity.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

func (r *redisKeyValueStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *redisKeyValueStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *redisKeyValueStore) Close() error {
	return r.client.Close()
}

func (r *redisKeyValueStore) key(key string) string {
	return r.prefix + key
}
