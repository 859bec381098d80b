package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// RedisChecker resolves session credentials against the shared redis the
// auth frontend writes to. The value under session:<credential> is the
// authenticated user id.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context, credential string) (int64, error) {
	value, err := c.client.Get(ctx, "session:"+credential).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("session not found")
		}
		return 0, fmt.Errorf("failed to check session: %w", err)
	}
	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed session record: %w", err)
	}
	return userID, nil
}

// DenyAllChecker rejects every credential. It stands in when no session
// backend is configured, so the service still starts for callback and
// webhook traffic.
type DenyAllChecker struct{}

func (DenyAllChecker) Check(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("no session backend configured")
}
