package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shoppingapp/usersapi/models"
	"github.com/shoppingapp/usersapi/security"
	"github.com/shoppingapp/usersapi/utils"
)

type RegisterInput struct {
	Name                   string
	Email                  string
	Password               string
	CPF                    *string
	Phone                  *string
	BirthDate              *time.Time
	Gender                 *models.Gender
	Role                   models.Role
	Address                *models.Address
	Preferences            *models.Preferences
	MarketingConsent       bool
	NewsletterSubscription bool
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleSeller {
		return AuthResult{}, ErrRoleNotAllowed
	}
	if err := s.policy.CheckStrength(in.Password); err != nil {
		return AuthResult{}, err
	}
	hash, err := s.policy.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, err
	}
	user := models.User{
		ID:                     uuid.NewString(),
		Name:                   strings.TrimSpace(in.Name),
		Email:                  normalizeEmail(in.Email),
		CPF:                    in.CPF,
		Phone:                  in.Phone,
		BirthDate:              in.BirthDate,
		Gender:                 in.Gender,
		Role:                   role,
		IsActive:               true,
		Address:                in.Address,
		Preferences:            in.Preferences,
		MarketingConsent:       in.MarketingConsent,
		NewsletterSubscription: in.NewsletterSubscription,
		PasswordHash:           hash,
	}

	var result AuthResult
	err = s.store.Transaction(ctx, func(tx Store) error {
		_, err := tx.FindUserByEmail(ctx, user.Email)
		if err == nil {
			return ErrEmailAlreadyExists
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if err := tx.CreateUser(ctx, &user); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return ErrDuplicateResource
			}
			return fmt.Errorf("create user: %w", err)
		}
		pair, err := s.issueSession(ctx, tx, user)
		if err != nil {
			return err
		}
		result = AuthResult{User: user, Tokens: pair}
		return nil
	})
	if err != nil {
		return AuthResult{}, err
	}
	s.log.Info("user registered", "userId", user.ID, "role", user.Role)
	return result, nil
}

// Login checks, in order: the account exists, is active, is not locked, and
// the password matches. Only a password mismatch on an existing account is
// counted, and that count is committed even though the call fails.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	var result AuthResult
	var loginErr error
	err := s.store.Transaction(ctx, func(tx Store) error {
		user, err := tx.FindUserByEmail(ctx, email)
		if errors.Is(err, models.ErrNotFound) {
			loginErr = ErrInvalidCredentials
			return nil
		}
		if err != nil {
			return err
		}
		if !user.IsActive {
			loginErr = ErrUserInactive
			return nil
		}
		if s.policy.IsLocked(user) {
			loginErr = &AccountLockedError{Until: *user.LockedUntil}
			return nil
		}
		ok, err := s.policy.VerifyPassword(password, user.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			m := s.policy.RecordFailedLogin(user)
			if err := tx.UpdateUser(ctx, &m.User, m.Fields...); err != nil {
				return err
			}
			if s.policy.IsLocked(m.User) {
				s.log.Warn("account locked", "userId", user.ID, "until", *m.User.LockedUntil)
			}
			loginErr = ErrInvalidCredentials
			return nil
		}
		m := s.policy.RecordSuccessfulLogin(user)
		if err := tx.UpdateUser(ctx, &m.User, m.Fields...); err != nil {
			return err
		}
		pair, err := s.issueSession(ctx, tx, m.User)
		if err != nil {
			return err
		}
		result = AuthResult{User: m.User, Tokens: pair}
		return nil
	})
	if err != nil {
		return AuthResult{}, err
	}
	if loginErr != nil {
		return AuthResult{}, loginErr
	}
	return result, nil
}

// Refresh exchanges a stored refresh token for a new pair. The presented
// token is deleted so it cannot be used twice.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	claims, err := s.tokens.Verify(utils.REFRESH_TYPE, refreshToken)
	if err != nil {
		return AuthResult{}, ErrInvalidToken
	}
	digest := security.HashToken(refreshToken)
	var result AuthResult
	err = s.store.Transaction(ctx, func(tx Store) error {
		stored, err := tx.FindRefreshToken(ctx, digest)
		if errors.Is(err, models.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if stored.UserID != claims.UserID || !stored.TokenExpiresAt.After(s.now()) {
			return ErrInvalidToken
		}
		user, err := tx.FindUserByID(ctx, stored.UserID)
		if errors.Is(err, models.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if !user.IsActive {
			return ErrUserInactive
		}
		if err := tx.DeleteRefreshToken(ctx, digest); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		pair, err := s.issueSession(ctx, tx, user)
		if err != nil {
			return err
		}
		result = AuthResult{User: user, Tokens: pair}
		return nil
	})
	if err != nil {
		return AuthResult{}, err
	}
	return result, nil
}

// Logout forgets a refresh token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	err := s.store.DeleteRefreshToken(ctx, security.HashToken(refreshToken))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return nil
}
