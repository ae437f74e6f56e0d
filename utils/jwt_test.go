package utils

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoppingapp/usersapi/models"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func newTestManager(t *testing.T, opts JWTOptions, now *time.Time) *JWTManager {
	t.Helper()
	if opts.AccessTTL == 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = 24 * time.Hour
	}
	if opts.Issuer == "" {
		opts.Issuer = "usersapi"
	}
	m, err := NewJWTManager(opts)
	require.NoError(t, err)
	m.SetClock(func() time.Time { return *now })
	return m
}

func TestIssueAndVerifyPair(t *testing.T) {
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	m := newTestManager(t, JWTOptions{AccessSecret: b64("a-key"), RefreshSecret: b64("r-key")}, &now)
	user := models.User{ID: "u-1", Email: "a@x.com", Role: models.RoleAdmin}

	pair, err := m.IssuePair(user)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), pair.AccessExpiresAt)
	assert.Equal(t, now.Add(24*time.Hour), pair.RefreshExpiresAt)

	claims, err := m.Verify(ACCESS_TYPE, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)

	_, err = m.Verify(REFRESH_TYPE, pair.RefreshToken)
	require.NoError(t, err)

	_, err = m.Verify(REFRESH_TYPE, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.Verify(ACCESS_TYPE, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredAndTampered(t *testing.T) {
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	m := newTestManager(t, JWTOptions{AccessSecret: b64("a-key"), RefreshSecret: b64("r-key")}, &now)

	pair, err := m.IssuePair(models.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = m.Verify(ACCESS_TYPE, pair.AccessToken+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	now = now.Add(16 * time.Minute)
	_, err = m.Verify(ACCESS_TYPE, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := newTestManager(t, JWTOptions{AccessSecret: b64("a-key"), RefreshSecret: b64("r-key"), Issuer: "someone-else"}, &now)
	fresh, err := other.IssuePair(models.User{ID: "u-1"})
	require.NoError(t, err)
	_, err = m.Verify(ACCESS_TYPE, fresh.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAcceptsPreviousKey(t *testing.T) {
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	before := newTestManager(t, JWTOptions{AccessSecret: b64("old-key"), RefreshSecret: b64("r-key")}, &now)
	pair, err := before.IssuePair(models.User{ID: "u-1"})
	require.NoError(t, err)

	rotated := newTestManager(t, JWTOptions{AccessSecret: b64("new-key"), AccessSecretOld: b64("old-key"), RefreshSecret: b64("r-key")}, &now)
	_, err = rotated.Verify(ACCESS_TYPE, pair.AccessToken)
	assert.NoError(t, err)

	dropped := newTestManager(t, JWTOptions{AccessSecret: b64("new-key"), RefreshSecret: b64("r-key")}, &now)
	_, err = dropped.Verify(ACCESS_TYPE, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTManagerRejectsBadSecrets(t *testing.T) {
	_, err := NewJWTManager(JWTOptions{AccessSecret: "", RefreshSecret: b64("r")})
	assert.Error(t, err)
	_, err = NewJWTManager(JWTOptions{AccessSecret: b64("a"), RefreshSecret: "not base64!"})
	assert.Error(t, err)
}
