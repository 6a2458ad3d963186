package auth

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Revoker tracks access tokens that were explicitly logged out.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevoker stores revoked token ids in Redis until the token expires.
type RedisRevoker struct {
	Client *redis.Client
	Prefix string
}

func (r RedisRevoker) key(tokenID string) string {
	prefix := r.Prefix
	if prefix == "" {
		prefix = "auth:revoked:"
	}
	return prefix + tokenID
}

// Revoke marks tokenID as revoked for ttl. Non-positive ttls are a no-op.
func (r RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r.Client == nil || ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, r.key(tokenID), 1, ttl).Err()
}

// IsRevoked reports whether tokenID was revoked.
func (r RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.Client == nil {
		return false, nil
	}
	err := r.Client.Get(ctx, r.key(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
