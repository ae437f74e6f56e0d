// Package security holds the account-security rules applied to a user record:
// password hashing and lockout, reset tokens, password history and strength.
//
// Policy never touches storage. Every state change is returned as a Mutation
// carrying the new user value and the fields the caller has to persist.
package security

import (
	"time"

	"github.com/shoppingapp/usersapi/models"
)

const (
	FieldFailedLoginAttempts  = "FailedLoginAttempts"
	FieldLockedUntil          = "LockedUntil"
	FieldLastLoginAt          = "LastLoginAt"
	FieldPasswordHash         = "PasswordHash"
	FieldPasswordHistory      = "PasswordHistory"
	FieldLastPasswordChangeAt = "LastPasswordChangeAt"
	FieldResetTokenHash       = "ResetTokenHash"
	FieldResetTokenExpiresAt  = "ResetTokenExpiresAt"
)

// Hasher is the password hashing primitive. Compare reports a mismatch as
// (false, nil) and only returns an error when the primitive itself fails.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) (bool, error)
}

type Config struct {
	MaxFailedLogins   int
	LockoutDuration   time.Duration
	ResetTokenTTL     time.Duration
	HistorySize       int
	MinPasswordLength int
}

func DefaultConfig() Config {
	return Config{
		MaxFailedLogins:   5,
		LockoutDuration:   30 * time.Minute,
		ResetTokenTTL:     time.Hour,
		HistorySize:       5,
		MinPasswordLength: 6,
	}
}

type Policy struct {
	cfg    Config
	hasher Hasher
	now    func() time.Time
}

func NewPolicy(cfg Config, hasher Hasher) *Policy {
	return &Policy{cfg: cfg, hasher: hasher, now: time.Now}
}

// WithClock returns a copy of the policy reading the current time from now.
func (p *Policy) WithClock(now func() time.Time) *Policy {
	cp := *p
	cp.now = now
	return &cp
}

func (p *Policy) Config() Config {
	return p.cfg
}

// Mutation is a new user state plus the fields that changed.
type Mutation struct {
	User   models.User
	Fields []string
}

// Merge applies next on top of m: the user comes from next and the field
// sets are joined.
func (m Mutation) Merge(next Mutation) Mutation {
	fields := append([]string(nil), m.Fields...)
	for _, f := range next.Fields {
		if !contains(fields, f) {
			fields = append(fields, f)
		}
	}
	return Mutation{User: next.User, Fields: fields}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
