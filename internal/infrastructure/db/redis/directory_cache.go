package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

const defaultDirectoryTTL = 12 * time.Hour

// CachedDirectory caches identity directory lookups in Redis. Cache
// failures are logged and the call falls through to the wrapped directory.
//
// Key formats:
//
//	directory:profile:<user_id>
//	directory:reports:<user_id>
//	directory:manager:<user_id>
type CachedDirectory struct {
	next   ports.IdentityDirectory
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedDirectory(next ports.IdentityDirectory, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = defaultDirectoryTTL
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl, logger: logger}
}

// ListDirectReports caches only unfiltered listings. Contexts marked with
// ports.WithFreshDirectory skip the cached listing and refresh it.
func (c *CachedDirectory) ListDirectReports(ctx context.Context, userID, search string) ([]domain.Profile, error) {
	if search != "" {
		return c.next.ListDirectReports(ctx, userID, search)
	}

	key := "directory:reports:" + userID
	var cached []domain.Profile
	if !ports.FreshDirectory(ctx) && c.load(ctx, key, &cached) {
		return cached, nil
	}

	reports, err := c.next.ListDirectReports(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, reports)
	return reports, nil
}

func (c *CachedDirectory) GetManager(ctx context.Context, userID string) (*domain.Profile, error) {
	key := "directory:manager:" + userID
	var cached *domain.Profile
	if !ports.FreshDirectory(ctx) && c.load(ctx, key, &cached) {
		return cached, nil
	}

	manager, err := c.next.GetManager(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, manager)
	return manager, nil
}

func (c *CachedDirectory) GetUsers(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	found := make(map[string]domain.Profile, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}

	missing := ids
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn().Err(err).Msg("directory cache read failed")
	} else {
		missing = nil
		for i, v := range values {
			raw, ok := v.(string)
			var p domain.Profile
			if !ok || json.Unmarshal([]byte(raw), &p) != nil {
				missing = append(missing, ids[i])
				continue
			}
			found[ids[i]] = p
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	fetched, err := c.next.GetUsers(ctx, missing)
	if err != nil {
		return nil, err
	}

	pipe := c.client.Pipeline()
	for id, p := range fetched {
		found[id] = p
		if raw, err := json.Marshal(p); err == nil {
			pipe.Set(ctx, profileKey(id), raw, c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Msg("directory cache write failed")
	}
	return found, nil
}

func (c *CachedDirectory) load(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("directory cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt directory cache entry")
		return false
	}
	return true
}

func (c *CachedDirectory) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("directory cache write failed")
	}
}

func profileKey(userID string) string {
	return fmt.Sprintf("directory:profile:%s", userID)
}
