package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements session storage using Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed session store.
func NewRedisStore(redisURL string) (*RedisStore, error) {
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

	return &RedisStore{
		client: client,
		prefix: "sitewatch:session:",
	}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "sitewatch:session:",
	}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

// Save stores a session with expiration.
func (s *RedisStore) Save(ctx context.Context, token string, data Data, ttl time.Duration) error {
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session data: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if err := s.client.Set(ctx, s.key(token), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Lookup resolves a token to the signed-in account.
func (s *RedisStore) Lookup(ctx context.Context, token string) (Data, error) {
	jsonData, err := s.client.Get(ctx, s.key(token)).Result()
	if err == redis.Nil {
		return Data{}, ErrNotFound
	}
	if err != nil {
		return Data{}, fmt.Errorf("lookup session: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return Data{}, fmt.Errorf("unmarshal session data: %w", err)
	}
	return data, nil
}

// Revoke deletes a session. Revoking an unknown token is not an error.
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
