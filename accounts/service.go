// Package accounts orchestrates user accounts: registration, sessions,
// password reset and change, profiles and administration. Every security rule
// comes from security.Policy; this package only loads, persists and notifies.
package accounts

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shoppingapp/usersapi/models"
	"github.com/shoppingapp/usersapi/security"
	"github.com/shoppingapp/usersapi/utils"
)

type TokenIssuer interface {
	IssuePair(user models.User) (utils.TokenPair, error)
	Verify(tokenType, token string) (*utils.Claims, error)
}

// Notifier delivers messages out of band. Reset tokens reach the user only
// through SendPasswordReset.
type Notifier interface {
	SendPasswordReset(ctx context.Context, user models.User, token string, expiresAt time.Time) error
	SendPasswordChanged(ctx context.Context, user models.User) error
}

// Revoker invalidates every access token of a user issued before at.
type Revoker interface {
	RevokeUser(ctx context.Context, userID string, at time.Time) error
}

type Deps struct {
	Store    Store
	Policy   *security.Policy
	Tokens   TokenIssuer
	Notifier Notifier
	Revoker  Revoker
	Logger   *slog.Logger
}

type Service struct {
	store    Store
	policy   *security.Policy
	tokens   TokenIssuer
	notifier Notifier
	revoker  Revoker
	log      *slog.Logger
	now      func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		policy:   d.Policy,
		tokens:   d.Tokens,
		notifier: d.Notifier,
		revoker:  d.Revoker,
		log:      d.Logger,
		now:      time.Now,
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.revoker == nil {
		s.revoker = noopRevoker{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type AuthResult struct {
	User   models.User
	Tokens utils.TokenPair
}

// issueSession signs a token pair and stores the refresh token digest.
func (s *Service) issueSession(ctx context.Context, store Store, user models.User) (utils.TokenPair, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return pair, err
	}
	err = store.CreateRefreshToken(ctx, &models.RefreshToken{
		UserID:         user.ID,
		TokenHash:      security.HashToken(pair.RefreshToken),
		TokenExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return utils.TokenPair{}, err
	}
	return pair, nil
}

// endSessions is called after a commit that removed the refresh tokens of a
// user, so that outstanding access tokens stop working too.
func (s *Service) endSessions(ctx context.Context, userID string) {
	if err := s.revoker.RevokeUser(ctx, userID, s.now()); err != nil {
		s.log.Error("revoke access tokens", "userId", userID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type noopNotifier struct{}

func (noopNotifier) SendPasswordReset(context.Context, models.User, string, time.Time) error {
	return nil
}

func (noopNotifier) SendPasswordChanged(context.Context, models.User) error {
	return nil
}

type noopRevoker struct{}

func (noopRevoker) RevokeUser(context.Context, string, time.Time) error {
	return nil
}
