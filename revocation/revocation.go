// Package revocation keeps per-user markers meaning "access tokens issued
// before this instant are no longer valid". Access tokens are stateless, so
// this is how a password change or deactivation signs a user out everywhere.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "usersapi:revoked:"

type Checker interface {
	IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisRevoker stores one key per user holding the revocation time in unix
// seconds. Keys live as long as an access token can, after which every
// token issued before the marker has expired anyway.
type RedisRevoker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRevoker(client *redis.Client, accessTTL time.Duration) *RedisRevoker {
	return &RedisRevoker{client: client, ttl: accessTTL}
}

func key(userID string) string {
	return keyPrefix + userID
}

func (r *RedisRevoker) RevokeUser(ctx context.Context, userID string, at time.Time) error {
	if err := r.client.Set(ctx, key(userID), at.Unix(), r.ttl).Err(); err != nil {
		return fmt.Errorf("revoke user %s: %w", userID, err)
	}
	return nil
}

// IsRevoked compares at second precision, the precision of the iat claim. A
// token issued in the same second as the marker is revoked too, since it may
// predate the marker within that second.
func (r *RedisRevoker) IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read revocation for %s: %w", userID, err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt revocation for %s: %w", userID, err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

func (r *RedisRevoker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Noop is used when no redis is configured. Nothing is ever revoked.
type Noop struct{}

func (Noop) RevokeUser(context.Context, string, time.Time) error {
	return nil
}

func (Noop) IsRevoked(context.Context, string, time.Time) (bool, error) {
	return false, nil
}
