package dbhelper

import (
	"context"

	"github.com/shoppingapp/usersapi/models"
)

func (s *Store) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return translate(s.db.WithContext(ctx).Create(token).Error)
}

func (s *Store) FindRefreshToken(ctx context.Context, tokenHash string) (models.RefreshToken, error) {
	var token models.RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error
	return token, translate(err)
}

func (s *Store) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	result := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRefreshTokensForUser(ctx context.Context, userID string) error {
	return translate(s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error)
}
