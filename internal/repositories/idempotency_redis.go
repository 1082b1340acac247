package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// webhookKey namespaces guard entries in Redis.
func webhookKey(key string) string {
	return fmt.Sprintf("storefront:webhook:seen:%s", key)
}

// RedisIdempotencyGuard is a Redis implementation of IdempotencyGuard built
// on SET NX, so concurrent deliveries of the same event race on a single
// atomic write and exactly one wins.
type RedisIdempotencyGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyGuard creates a new instance of RedisIdempotencyGuard.
func NewRedisIdempotencyGuard(client *redis.Client, ttl time.Duration) *RedisIdempotencyGuard {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisIdempotencyGuard{
		client: client,
		ttl:    ttl,
	}
}

// Acquire marks the key as seen; first caller wins.
func (g *RedisIdempotencyGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, webhookKey(key), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire idempotency key %s: %w", key, err)
	}
	return ok, nil
}

// Forget drops the key so the event can be reapplied on redelivery.
func (g *RedisIdempotencyGuard) Forget(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, webhookKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to forget idempotency key %s: %w", key, err)
	}
	return nil
}
