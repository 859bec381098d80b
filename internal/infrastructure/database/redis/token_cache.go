package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
)

// NewRedisClient connects and pings the configured redis instance.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// TokenCache is a read-through cache of resolved effective tokens keyed by
// scope. Misses and redis errors degrade to the database chain; the cache
// never decides that a token does not exist.
type TokenCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

func NewTokenCache(client *redis.Client, logger *zap.Logger, ttl time.Duration) *TokenCache {
	return &TokenCache{client: client, logger: logger, ttl: ttl}
}

// Get returns the cached token for the scope, or nil on miss or error.
func (c *TokenCache) Get(ctx context.Context, scope models.Scope) *models.UserToken {
	data, err := c.client.Get(ctx, scope.CacheKey()).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Failed to get token from cache", zap.Error(err), zap.Stringer("scope", scope))
		}
		return nil
	}
	var token models.UserToken
	if err := json.Unmarshal(data, &token); err != nil {
		c.logger.Warn("Failed to unmarshal cached token", zap.Error(err), zap.Stringer("scope", scope))
		return nil
	}
	return &token
}

// Set stores the resolved token under the scope key. TTL is capped by the
// token's own advisory expiry when that is sooner.
func (c *TokenCache) Set(ctx context.Context, scope models.Scope, token *models.UserToken) {
	data, err := json.Marshal(token)
	if err != nil {
		c.logger.Warn("Failed to marshal token for cache", zap.Error(err), zap.Stringer("scope", scope))
		return
	}
	ttl := c.ttl
	if token.ExpiresAt != nil {
		if expiresIn := time.Until(*token.ExpiresAt); expiresIn > 0 && expiresIn < ttl {
			ttl = expiresIn
		}
	}
	if err := c.client.Set(ctx, scope.CacheKey(), data, ttl).Err(); err != nil {
		c.logger.Warn("Failed to set token in cache", zap.Error(err), zap.Stringer("scope", scope))
	}
}

// Invalidate drops the cached entry for the scope after a store or unlink.
func (c *TokenCache) Invalidate(ctx context.Context, scope models.Scope) {
	if err := c.client.Del(ctx, scope.CacheKey()).Err(); err != nil {
		c.logger.Warn("Failed to invalidate cached token", zap.Error(err), zap.Stringer("scope", scope))
	}
}
