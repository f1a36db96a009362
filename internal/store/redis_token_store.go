package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

const (
	tokenKeyPrefix = "token:"
	adminKeyPrefix = "admin_token:"
)

// RedisTokenStore keeps admin API tokens in Redis with a TTL so tokens expire
// without any cleanup job. A reverse key per admin lets login rotate the
// previous token atomically enough for a single-node deployment.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore connects to Redis and verifies the connection.
func NewRedisTokenStore(ctx context.Context, cfg config.RedisConfig) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisTokenStore{client: client}, nil
}

// Put stores the token with a TTL derived from its expiry and revokes any
// previous token held by the same admin.
func (s *RedisTokenStore) Put(ctx context.Context, token *model.AdminToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token already expired")
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	// Rotate: drop the admin's previous token before storing the new one.
	if err := s.RevokeAdmin(ctx, token.AdminID); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKeyPrefix+token.Token, payload, ttl)
	pipe.Set(ctx, adminKeyPrefix+token.AdminID, token.Token, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Get retrieves a token. Expired or unknown tokens return ErrNotFound.
func (s *RedisTokenStore) Get(ctx context.Context, token string) (*model.AdminToken, error) {
	payload, err := s.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var t model.AdminToken
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &t, nil
}

// RevokeAdmin removes the admin's active token, if any.
func (s *RedisTokenStore) RevokeAdmin(ctx context.Context, adminID string) error {
	current, err := s.client.Get(ctx, adminKeyPrefix+adminID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up admin token: %w", err)
	}

	if err := s.client.Del(ctx, tokenKeyPrefix+current, adminKeyPrefix+adminID).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *RedisTokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
