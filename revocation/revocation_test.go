package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRevoker(t *testing.T) (*RedisRevoker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRevoker(client, 15*time.Minute), mr
}

func TestRevokeUser(t *testing.T) {
	r, mr := newTestRevoker(t)
	ctx := context.Background()
	at := time.Date(2024, 4, 1, 12, 0, 30, 500, time.UTC)

	revoked, err := r.IsRevoked(ctx, "u-1", at.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked, "no marker")

	require.NoError(t, r.RevokeUser(ctx, "u-1", at))
	assert.Equal(t, 15*time.Minute, mr.TTL(key("u-1")))

	revoked, err = r.IsRevoked(ctx, "u-1", at.Add(-time.Second))
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "u-1", at.Truncate(time.Second))
	require.NoError(t, err)
	assert.True(t, revoked, "same second as the marker")

	revoked, err = r.IsRevoked(ctx, "u-1", at.Truncate(time.Second).Add(time.Second))
	require.NoError(t, err)
	assert.False(t, revoked, "issued after the marker")

	revoked, err = r.IsRevoked(ctx, "u-2", at.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked, "other users are unaffected")

	mr.FastForward(16 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "u-1", at.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, revoked, "marker expired")
}

func TestIsRevokedCorruptValue(t *testing.T) {
	r, mr := newTestRevoker(t)
	require.NoError(t, mr.Set(key("u-1"), "garbage"))

	_, err := r.IsRevoked(context.Background(), "u-1", time.Now())
	assert.Error(t, err)
}

func TestRedisUnavailable(t *testing.T) {
	r, mr := newTestRevoker(t)
	mr.Close()

	assert.Error(t, r.Ping(context.Background()))
	assert.Error(t, r.RevokeUser(context.Background(), "u-1", time.Now()))
}

func TestNoop(t *testing.T) {
	var n Noop
	require.NoError(t, n.RevokeUser(context.Background(), "u-1", time.Now()))
	revoked, err := n.IsRevoked(context.Background(), "u-1", time.Time{})
	require.NoError(t, err)
	assert.False(t, revoked)
}
