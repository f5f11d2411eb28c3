// Package cache opens the Redis client behind the user and roster caches.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/labportal/server/internal/infra/config"
)

const dialCheckTimeout = 3 * time.Second

// Connect opens a client for cfg and pings it. The client is closed again if
// the server does not answer within ctx or dialCheckTimeout.
func Connect(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialCheckTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Address, err)
	}
	return client, nil
}
