package clientstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hashKey is the single Redis hash holding the whole namespace. One hash,
// one deployment: the namespace is global by design.
const hashKey = "sitewatch:client-storage"

// RedisNamespace implements Namespace on a Redis hash.
type RedisNamespace struct {
	client *redis.Client
}

// NewRedisNamespace connects to Redis and verifies the connection.
func NewRedisNamespace(redisURL string) (*RedisNamespace, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisNamespace{client: client}, nil
}

// NewRedisNamespaceWithClient wraps an existing client, mainly for tests.
func NewRedisNamespaceWithClient(client *redis.Client) *RedisNamespace {
	return &RedisNamespace{client: client}
}

func (n *RedisNamespace) GetAll(ctx context.Context) (map[string]string, error) {
	data, err := n.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read client storage: %w", err)
	}
	return data, nil
}

func (n *RedisNamespace) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return nil
	}
	if err := n.client.HSet(ctx, hashKey, key, value).Err(); err != nil {
		return fmt.Errorf("write client storage item: %w", err)
	}
	return nil
}

func (n *RedisNamespace) DeleteItem(ctx context.Context, key string) error {
	if err := n.client.HDel(ctx, hashKey, key).Err(); err != nil {
		return fmt.Errorf("delete client storage item: %w", err)
	}
	return nil
}

func (n *RedisNamespace) Clear(ctx context.Context) error {
	if err := n.client.Del(ctx, hashKey).Err(); err != nil {
		return fmt.Errorf("clear client storage: %w", err)
	}
	return nil
}

func (n *RedisNamespace) Close() error {
	return n.client.Close()
}

// Ping checks if Redis is reachable.
func (n *RedisNamespace) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}
