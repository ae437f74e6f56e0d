package security

import (
	"github.com/shoppingapp/usersapi/models"
)

func (p *Policy) HashPassword(plaintext string) (string, error) {
	digest, err := p.hasher.Hash(plaintext)
	if err != nil {
		return "", &HashingError{Err: err}
	}
	return digest, nil
}

func (p *Policy) VerifyPassword(plaintext, digest string) (bool, error) {
	ok, err := p.hasher.Compare(plaintext, digest)
	if err != nil {
		return false, &HashingError{Err: err}
	}
	return ok, nil
}

// IsLocked reports whether the lock window is still open.
func (p *Policy) IsLocked(u models.User) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(p.now())
}

// RecordFailedLogin counts a password mismatch and locks the account once the
// count reaches MaxFailedLogins. A lock window that has already elapsed starts
// a fresh count.
func (p *Policy) RecordFailedLogin(u models.User) Mutation {
	now := p.now()
	if u.LockedUntil != nil && !u.LockedUntil.After(now) {
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= p.cfg.MaxFailedLogins {
		until := now.Add(p.cfg.LockoutDuration)
		u.LockedUntil = &until
	}
	return Mutation{User: u, Fields: []string{FieldFailedLoginAttempts, FieldLockedUntil}}
}

func (p *Policy) RecordSuccessfulLogin(u models.User) Mutation {
	now := p.now()
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	return Mutation{User: u, Fields: []string{FieldFailedLoginAttempts, FieldLockedUntil, FieldLastLoginAt}}
}
