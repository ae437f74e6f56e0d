package security

import (
	"unicode"
	"unicode/utf8"

	"github.com/shoppingapp/usersapi/models"
)

const (
	ViolationMinLength     = "MIN_LENGTH"
	ViolationMaxLength     = "MAX_LENGTH"
	ViolationDigitRequired = "DIGIT_REQUIRED"
)

// MaxPasswordBytes is the longest input bcrypt accepts, counted in bytes.
const MaxPasswordBytes = 72

type StrengthResult struct {
	Valid      bool
	Violations []string
}

// ValidateStrength reports every rule the candidate breaks, not just the first.
func (p *Policy) ValidateStrength(candidate string) StrengthResult {
	var violations []string
	if utf8.RuneCountInString(candidate) < p.cfg.MinPasswordLength {
		violations = append(violations, ViolationMinLength)
	}
	if len(candidate) > MaxPasswordBytes {
		violations = append(violations, ViolationMaxLength)
	}
	hasDigit := false
	for _, r := range candidate {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		violations = append(violations, ViolationDigitRequired)
	}
	return StrengthResult{Valid: len(violations) == 0, Violations: violations}
}

// CheckStrength is ValidateStrength as an error.
func (p *Policy) CheckStrength(candidate string) error {
	res := p.ValidateStrength(candidate)
	if !res.Valid {
		return &WeakPasswordError{Violations: res.Violations}
	}
	return nil
}

// IsPasswordReused checks the candidate against the current hash and then the
// stored history, newest first, and stops at the first match.
func (p *Policy) IsPasswordReused(u models.User, candidate string) (bool, error) {
	if u.PasswordHash != "" {
		ok, err := p.VerifyPassword(candidate, u.PasswordHash)
		if err != nil || ok {
			return ok, err
		}
	}
	for i := len(u.PasswordHistory) - 1; i >= 0; i-- {
		ok, err := p.VerifyPassword(candidate, u.PasswordHistory[i].Hash)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// RecordPasswordChange moves the current hash into the history, evicting the
// oldest entries beyond HistorySize, and installs newHash.
func (p *Policy) RecordPasswordChange(u models.User, newHash string) Mutation {
	now := p.now()
	history := make([]models.PasswordHistoryEntry, 0, len(u.PasswordHistory)+1)
	history = append(history, u.PasswordHistory...)
	if u.PasswordHash != "" {
		history = append(history, models.PasswordHistoryEntry{Hash: u.PasswordHash, ChangedAt: now})
	}
	if over := len(history) - p.cfg.HistorySize; over > 0 {
		history = history[over:]
	}
	u.PasswordHistory = history
	u.PasswordHash = newHash
	u.LastPasswordChangeAt = &now
	return Mutation{
		User:   u,
		Fields: []string{FieldPasswordHistory, FieldPasswordHash, FieldLastPasswordChangeAt},
	}
}
