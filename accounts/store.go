package accounts

import (
	"context"

	"github.com/shoppingapp/usersapi/models"
)

// Store is the persistence the service needs. Lookups return models.ErrNotFound
// for missing rows and writes return models.ErrDuplicate on unique violations.
type Store interface {
	// Transaction runs fn against a store bound to one transaction. User
	// lookups made through that store lock the row until commit.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByResetTokenHash(ctx context.Context, digest string) (models.User, error)
	// UpdateUser writes only the named fields, including zero values.
	UpdateUser(ctx context.Context, user *models.User, fields ...string) error
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error)

	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, tokenHash string) (models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID string) error
}
