package accounts

import (
	"context"
	"errors"

	"github.com/shoppingapp/usersapi/models"
	"github.com/shoppingapp/usersapi/security"
)

// ForgotPassword stores a fresh reset token digest for the account, hands the
// plaintext token to the notifier and returns it. A previously issued token
// stops working.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	var token string
	var user models.User
	err := s.store.Transaction(ctx, func(tx Store) error {
		u, err := tx.FindUserByEmail(ctx, email)
		if errors.Is(err, models.ErrNotFound) {
			return ErrEmailNotFound
		}
		if err != nil {
			return err
		}
		if !u.IsActive {
			return ErrUserInactive
		}
		t, m, err := s.policy.IssueResetToken(u)
		if err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, &m.User, m.Fields...); err != nil {
			return err
		}
		token, user = t, m.User
		return nil
	})
	if err != nil {
		return "", err
	}
	if err := s.notifier.SendPasswordReset(ctx, user, token, *user.ResetTokenExpiresAt); err != nil {
		s.log.Error("send password reset", "userId", user.ID, "error", err)
	}
	return token, nil
}

// ResetPassword sets a new password for the holder of a valid reset token.
// Once the token is validated it is consumed whatever happens next, so a
// rejected password still burns it.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	digest := security.HashToken(token)
	var user models.User
	var rejected error
	err := s.store.Transaction(ctx, func(tx Store) error {
		u, err := tx.FindUserByResetTokenHash(ctx, digest)
		if errors.Is(err, models.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		if err != nil {
			return err
		}
		if !u.IsActive || !s.policy.ValidateResetToken(u, token) {
			return ErrInvalidOrExpiredToken
		}
		m, err := s.applyPasswordChange(u, newPassword)
		if err != nil {
			var hashErr *security.HashingError
			if errors.As(err, &hashErr) {
				return err
			}
			rejected = err
			consumed := s.policy.ConsumeResetToken(u)
			return tx.UpdateUser(ctx, &consumed.User, consumed.Fields...)
		}
		m = m.Merge(s.policy.ConsumeResetToken(m.User))
		if err := tx.UpdateUser(ctx, &m.User, m.Fields...); err != nil {
			return err
		}
		if err := tx.DeleteRefreshTokensForUser(ctx, u.ID); err != nil {
			return err
		}
		user = m.User
		return nil
	})
	if err != nil {
		return err
	}
	if rejected != nil {
		return rejected
	}
	s.passwordChanged(ctx, user)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	var user models.User
	err := s.store.Transaction(ctx, func(tx Store) error {
		u, err := tx.FindUserByID(ctx, userID)
		if errors.Is(err, models.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		ok, err := s.policy.VerifyPassword(currentPassword, u.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidCurrentPassword
		}
		m, err := s.applyPasswordChange(u, newPassword)
		if err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, &m.User, m.Fields...); err != nil {
			return err
		}
		if err := tx.DeleteRefreshTokensForUser(ctx, u.ID); err != nil {
			return err
		}
		user = m.User
		return nil
	})
	if err != nil {
		return err
	}
	s.passwordChanged(ctx, user)
	return nil
}

// applyPasswordChange runs strength, reuse, hash and history in that order.
func (s *Service) applyPasswordChange(u models.User, newPassword string) (security.Mutation, error) {
	if err := s.policy.CheckStrength(newPassword); err != nil {
		return security.Mutation{}, err
	}
	reused, err := s.policy.IsPasswordReused(u, newPassword)
	if err != nil {
		return security.Mutation{}, err
	}
	if reused {
		return security.Mutation{}, ErrPasswordReused
	}
	hash, err := s.policy.HashPassword(newPassword)
	if err != nil {
		return security.Mutation{}, err
	}
	return s.policy.RecordPasswordChange(u, hash), nil
}

func (s *Service) passwordChanged(ctx context.Context, user models.User) {
	s.endSessions(ctx, user.ID)
	if err := s.notifier.SendPasswordChanged(ctx, user); err != nil {
		s.log.Error("send password changed", "userId", user.ID, "error", err)
	}
	s.log.Info("password changed", "userId", user.ID)
}
