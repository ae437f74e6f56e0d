package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/shoppingapp/usersapi/models"
)

const resetTokenBytes = 32

// HashToken is the digest stored in place of a reset or refresh token. It is
// deterministic so a presented token can be looked up by its digest.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssueResetToken returns a fresh plaintext token and the user holding its
// digest. Any previously issued token is overwritten.
func (p *Policy) IssueResetToken(u models.User) (string, Mutation, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", Mutation{}, fmt.Errorf("generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	digest := HashToken(token)
	expires := p.now().Add(p.cfg.ResetTokenTTL)
	u.ResetTokenHash = &digest
	u.ResetTokenExpiresAt = &expires
	return token, Mutation{User: u, Fields: []string{FieldResetTokenHash, FieldResetTokenExpiresAt}}, nil
}

func (p *Policy) ValidateResetToken(u models.User, token string) bool {
	if u.ResetTokenHash == nil || u.ResetTokenExpiresAt == nil {
		return false
	}
	if p.now().After(*u.ResetTokenExpiresAt) {
		return false
	}
	digest := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(*u.ResetTokenHash)) == 1
}

func (p *Policy) ConsumeResetToken(u models.User) Mutation {
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	return Mutation{User: u, Fields: []string{FieldResetTokenHash, FieldResetTokenExpiresAt}}
}
