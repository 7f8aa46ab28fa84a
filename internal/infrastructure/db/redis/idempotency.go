package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// reservationTTL bounds how long a crashed creator can hold a key.
	reservationTTL = 30 * time.Second
	pendingMarker  = "pending"
)

// IdempotencyStore remembers which request an Idempotency-Key produced.
// Key format: idem:<client_id>:<key>. While the first call is creating the
// request the key holds a pending marker.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key with SETNX. Exactly one concurrent caller gets reserved=true.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(scope, key), pendingMarker, reservationTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return "", true, nil
	}
	id, err := s.Lookup(ctx, scope, key)
	if err != nil {
		return "", false, err
	}
	return id, false, nil
}

// Lookup returns the request id stored for key, or "" when the key is unseen,
// expired or still pending.
func (s *IdempotencyStore) Lookup(ctx context.Context, scope, key string) (string, error) {
	id, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("idempotency lookup: %w", err)
	}
	if id == pendingMarker {
		return "", nil
	}
	return id, nil
}

// Complete replaces the reservation with requestID for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key, requestID string) error {
	if err := s.client.Set(ctx, s.key(scope, key), requestID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a reservation so the client can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
