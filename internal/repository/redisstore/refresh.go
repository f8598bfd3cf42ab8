package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/osavchenko/ecoroute/internal/apperrors"
)

// Key prefix to namespace refresh session entries in a shared redis
const keyPrefix = "refresh:"

// RefreshSessionStore keeps jti -> userID entries with redis-enforced TTL.
// The entry is the single source of truth for "this refresh token was not
// used and not revoked yet": no entry, no trust.
type RefreshSessionStore struct {
	client *redis.Client
}

func NewRefreshSessionStore(client *redis.Client) *RefreshSessionStore {
	return &RefreshSessionStore{client: client}
}

// Connect creates a redis client and pings it, so a dead redis fails startup
// instead of the first login.
func Connect(ctx context.Context, addr string, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func (s *RefreshSessionStore) Put(ctx context.Context, jti string, userID string, ttl time.Duration) error {
	err := s.client.Set(ctx, keyPrefix+jti, userID, ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: redis set: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RefreshSessionStore) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis exists: %v", apperrors.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Consume removes the entry and returns the owning user id in one atomic
// GETDEL, so concurrent refresh attempts with the same jti can never both
// observe the entry.
func (s *RefreshSessionStore) Consume(ctx context.Context, jti string) (string, error) {
	userID, err := s.client.GetDel(ctx, keyPrefix+jti).Result()

	switch {
	case err == nil:
		return userID, nil
	case errors.Is(err, redis.Nil):
		return "", apperrors.ErrSessionNotFound
	default:
		return "", fmt.Errorf("%w: redis getdel: %v", apperrors.ErrStoreUnavailable, err)
	}
}

func (s *RefreshSessionStore) Revoke(ctx context.Context, jti string) error {
	// DEL of a missing key is a no-op, which gives revoke its idempotency
	err := s.client.Del(ctx, keyPrefix+jti).Err()
	if err != nil {
		return fmt.Errorf("%w: redis del: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}
