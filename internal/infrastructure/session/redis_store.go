package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mizan-erp/backend/internal/infrastructure/config"
)

// RedisStore implements Store using Redis. Suitable for distributed
// deployments where every instance must see the same session bindings.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a Redis-backed session store and verifies the
// connection
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: "tenant:session:",
	}, nil
}

// NewRedisStoreWithClient creates a store with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "tenant:session:"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// GetTenant returns the tenant ID bound to the session token
func (s *RedisStore) GetTenant(ctx context.Context, token string) (string, error) {
	tenantID, err := s.client.Get(ctx, s.keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return tenantID, nil
}

// BindTenant binds a tenant ID to a session token for the given TTL
func (s *RedisStore) BindTenant(ctx context.Context, token, tenantID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+token, tenantID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to bind session: %w", err)
	}
	return nil
}

// Release removes the binding for a session token
func (s *RedisStore) Release(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to release session: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
