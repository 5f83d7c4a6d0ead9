package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers the response of a request sent with an
// Idempotency-Key header so a retry replays it instead of writing again.
// Key format: idempotency:<user_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis
// client. A zero ttl falls back to 24 hours.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Lookup returns the stored response body for key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, userID, key string) ([]byte, bool, error) {
	body, err := s.client.Get(ctx, s.key(userID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return body, true, nil
}

// Remember stores body for key unless a response is already recorded.
func (s *IdempotencyStore) Remember(ctx context.Context, userID, key string, body []byte) error {
	if err := s.client.SetNX(ctx, s.key(userID, key), body, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(userID, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", userID, key)
}
