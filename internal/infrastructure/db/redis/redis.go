// Package redis backs the directory cache and duplicate request replay with
// Redis. Both are optional: callers run without them when Open fails.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

const defaultDialTimeout = 2 * time.Second

type Config struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Cache is the Redis connection shared by CachedDirectory and
// IdempotencyStore.
type Cache struct {
	client *redis.Client
}

// Open connects and pings the server once.
func Open(ctx context.Context, cfg Config) (*Cache, error) {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dial,
		ReadTimeout:  dial,
		WriteTimeout: dial,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Cache{client: client}, nil
}

// Directory wraps next with a profile cache whose entries expire after ttl.
func (c *Cache) Directory(next ports.IdentityDirectory, ttl time.Duration, logger zerolog.Logger) *CachedDirectory {
	return NewCachedDirectory(next, c.client, ttl, logger)
}

// Idempotency returns the store that replays duplicate requests for ttl.
func (c *Cache) Idempotency(ttl time.Duration) *IdempotencyStore {
	return NewIdempotencyStore(c.client, ttl)
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
