// Package cache opens the Redis client shared by the idempotency middleware
// and the event publisher.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// OpenRedis connects to addr/db and fails fast when the server does not answer a PING.
func OpenRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis %s/%d: %w", addr, db, err)
	}
	return r, nil
}

// Check returns a health probe for the client.
func Check(r *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return r.Ping(ctx).Err()
	}
}
