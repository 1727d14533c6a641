package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyInProgress = "PROCESSING"
	idempotencyLockTTL    = 30 * time.Second
)

// IdempotencyStore remembers the response of state-changing requests by
// client-supplied key.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Begin claims key. It returns the stored response and false when the key was
// already completed, and ErrInProgress while another request holds it.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) ([]byte, bool, error) {
	k := idempotencyKey(key)
	acquired, err := s.client.SetNX(ctx, k, idempotencyInProgress, idempotencyLockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if acquired {
		return nil, true, nil
	}

	val, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, ErrInProgress
		}
		return nil, false, err
	}
	if string(val) == idempotencyInProgress {
		return nil, false, ErrInProgress
	}
	return val, false, nil
}

// Complete stores the response body for later replays.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, response []byte) error {
	return s.client.Set(ctx, idempotencyKey(key), response, s.ttl).Err()
}

// Abort releases the key so the client may retry after a failure.
func (s *IdempotencyStore) Abort(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyKey(key)).Err()
}

var ErrInProgress = errors.New("a request with this idempotency key is in progress")

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}
