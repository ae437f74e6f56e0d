package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoppingapp/usersapi/models"
)

// plainHasher stands in for bcrypt so the policy can be tested quickly.
type plainHasher struct {
	err error
}

func (h plainHasher) Hash(plaintext string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "h:" + plaintext, nil
}

func (h plainHasher) Compare(plaintext, digest string) (bool, error) {
	if h.err != nil {
		return false, h.err
	}
	return digest == "h:"+plaintext, nil
}

var epoch = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newTestPolicy(now *time.Time) *Policy {
	return NewPolicy(DefaultConfig(), plainHasher{}).WithClock(func() time.Time { return *now })
}

func TestHashAndVerify(t *testing.T) {
	now := epoch
	p := newTestPolicy(&now)

	digest, err := p.HashPassword("secret1")
	require.NoError(t, err)
	ok, err := p.VerifyPassword("secret1", digest)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.VerifyPassword("secret2", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	broken := NewPolicy(DefaultConfig(), plainHasher{err: errors.New("boom")})
	_, err = broken.HashPassword("secret1")
	var hashErr *HashingError
	require.ErrorAs(t, err, &hashErr)
	_, err = broken.VerifyPassword("secret1", "h:secret1")
	require.ErrorAs(t, err, &hashErr)
	assert.EqualError(t, errors.Unwrap(err), "boom")
}

func TestRecordFailedLoginLocksAtThreshold(t *testing.T) {
	now := epoch
	p := newTestPolicy(&now)
	u := models.User{}

	for i := 1; i < 5; i++ {
		m := p.RecordFailedLogin(u)
		u = m.User
		assert.Equal(t, i, u.FailedLoginAttempts)
		assert.Nil(t, u.LockedUntil)
		assert.False(t, p.IsLocked(u))
	}
	m := p.RecordFailedLogin(u)
	u = m.User
	assert.Equal(t, 5, u.FailedLoginAttempts)
	require.NotNil(t, u.LockedUntil)
	assert.Equal(t, epoch.Add(30*time.Minute), *u.LockedUntil)
	assert.True(t, p.IsLocked(u))
	assert.ElementsMatch(t, []string{FieldFailedLoginAttempts, FieldLockedUntil}, m.Fields)
}

func TestLockExpires(t *testing.T) {
	now := epoch
	p := newTestPolicy(&now)
	until := epoch.Add(30 * time.Minute)
	u := models.User{FailedLoginAttempts: 5, LockedUntil: &until}

	now = until
	assert.False(t, p.IsLocked(u), "lock ends exactly at lockedUntil")

	m := p.RecordFailedLogin(u)
	assert.Equal(t, 1, m.User.FailedLoginAttempts)
	assert.Nil(t, m.User.LockedUntil)
}

func TestRecordSuccessfulLogin(t *testing.T) {
	now := epoch
	p := newTestPolicy(&now)
	until := epoch.Add(time.Minute)
	u := models.User{FailedLoginAttempts: 3, LockedUntil: &until}

	m := p.RecordSuccessfulLogin(u)
	assert.Zero(t, m.User.FailedLoginAttempts)
	assert.Nil(t, m.User.LockedUntil)
	require.NotNil(t, m.User.LastLoginAt)
	assert.Equal(t, epoch, *m.User.LastLoginAt)
	assert.Equal(t, 3, u.FailedLoginAttempts, "input value is not mutated")
}

func TestResetTokenLifecycle(t *testing.T) {
	now := epoch
	p := newTestPolicy(&now)

	token, m, err := p.IssueResetToken(models.User{})
	require.NoError(t, err)
	u := m.User
	assert.GreaterOrEqual(t, len(token), 43)
	require.NotNil(t, u.ResetTokenHash)
	require.NotNil(t, u.ResetTokenExpiresAt)
	assert.Equal(t, HashToken(token), *u.ResetTokenHash)
	assert.NotContains(t, *u.ResetTokenHash, token)
	assert.Equal(t, epoch.Add(time.Hour), *u.ResetTokenExpiresAt)

	assert.True(t, p.ValidateResetToken(u, token))
	assert.False(t, p.ValidateResetToken(u, token+"x"))

	now = epoch.Add(time.Hour)
	assert.True(t, p.ValidateResetToken(u, token), "still valid at the expiry instant")
	now = epoch.Add(time.Hour + time.Nanosecond)
	assert.False(t, p.ValidateResetToken(u, token))

	consumed := p.ConsumeResetToken(u).User
	assert.Nil(t, consumed.ResetTokenHash)
	assert.Nil(t, consumed.ResetTokenExpiresAt)
	assert.False(t, p.ValidateResetToken(consumed, token))
}

func TestNewResetTokenReplacesOld(t *testing.T) {
	now := epoch
	p := newTestPolicy(&now)

	first, m, err := p.IssueResetToken(models.User{})
	require.NoError(t, err)
	second, m, err := p.IssueResetToken(m.User)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.False(t, p.ValidateResetToken(m.User, first))
	assert.True(t, p.ValidateResetToken(m.User, second))
}

func TestValidateStrength(t *testing.T) {
	now := epoch
	p := newTestPolicy(&now)

	tests := []struct {
		password   string
		violations []string
	}{
		{"secret1", nil},
		{"123456", nil},
		{"abc", []string{ViolationMinLength, ViolationDigitRequired}},
		{"abcdefgh", []string{ViolationDigitRequired}},
		{"ab1", []string{ViolationMinLength}},
		{"çãõé1", []string{ViolationMinLength}},
		{strings.Repeat("a", 71) + "1", nil},
		{strings.Repeat("a", 72) + "1", []string{ViolationMaxLength}},
		{strings.Repeat("é", 60) + "123456", []string{ViolationMaxLength}},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			res := p.ValidateStrength(tt.password)
			assert.Equal(t, len(tt.violations) == 0, res.Valid)
			assert.Equal(t, tt.violations, res.Violations)
		})
	}

	err := p.CheckStrength("abc")
	var weak *WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.True(t, strings.Contains(err.Error(), ViolationDigitRequired))
	assert.NoError(t, p.CheckStrength("secret1"))
}

func TestPasswordHistory(t *testing.T) {
	now := epoch
	p := newTestPolicy(&now)
	u := models.User{PasswordHash: "h:pw0"}

	for i := 1; i <= 6; i++ {
		now = now.Add(time.Minute)
		m := p.RecordPasswordChange(u, "h:pw"+string(rune('0'+i)))
		u = m.User
		assert.ElementsMatch(t, []string{FieldPasswordHistory, FieldPasswordHash, FieldLastPasswordChangeAt}, m.Fields)
	}
	require.Len(t, u.PasswordHistory, 5)
	assert.Equal(t, "h:pw1", u.PasswordHistory[0].Hash)
	assert.Equal(t, "h:pw5", u.PasswordHistory[4].Hash)
	assert.Equal(t, "h:pw6", u.PasswordHash)
	require.NotNil(t, u.LastPasswordChangeAt)
	assert.Equal(t, now, *u.LastPasswordChangeAt)

	reused, err := p.IsPasswordReused(u, "pw3")
	require.NoError(t, err)
	assert.True(t, reused)
	reused, err = p.IsPasswordReused(u, "pw6")
	require.NoError(t, err)
	assert.True(t, reused, "current password counts as reuse")
	reused, err = p.IsPasswordReused(u, "pw0")
	require.NoError(t, err)
	assert.False(t, reused, "evicted password may be used again")
}

func TestRecordPasswordChangeWithoutPreviousHash(t *testing.T) {
	now := epoch
	p := newTestPolicy(&now)
	m := p.RecordPasswordChange(models.User{}, "h:first")
	assert.Empty(t, m.User.PasswordHistory)
	assert.Equal(t, "h:first", m.User.PasswordHash)
}

func TestMutationMerge(t *testing.T) {
	a := Mutation{User: models.User{Name: "a"}, Fields: []string{FieldPasswordHash, FieldPasswordHistory}}
	b := Mutation{User: models.User{Name: "b"}, Fields: []string{FieldPasswordHash, FieldResetTokenHash}}

	merged := a.Merge(b)
	assert.Equal(t, "b", merged.User.Name)
	assert.Equal(t, []string{FieldPasswordHash, FieldPasswordHistory, FieldResetTokenHash}, merged.Fields)
	assert.Len(t, a.Fields, 2)
}
