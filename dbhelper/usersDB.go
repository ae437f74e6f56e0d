package dbhelper

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shoppingapp/usersapi/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) findUser(ctx context.Context, query string, arg interface{}) (models.User, error) {
	var user models.User
	err := s.users(ctx).Where(query, arg).First(&user).Error
	return user, translate(err)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *Store) FindUserByResetTokenHash(ctx context.Context, digest string) (models.User, error) {
	return s.findUser(ctx, "reset_token_hash = ?", digest)
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Model(user).Select(fields).Updates(user)
	if result.Error != nil {
		return translate(result.Error)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func userFilter(f models.UserFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.IsActive != nil {
			db = db.Where("is_active = ?", *f.IsActive)
		}
		if f.Role != nil {
			db = db.Where("role = ?", string(*f.Role))
		}
		if f.Search != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
			db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
		}
		return db
	}
}

// ListUsers returns one page of users, newest first, and the total number of
// users matching the filter.
func (s *Store) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(userFilter(filter)).Count(&total).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	users := []models.User{}
	if total == 0 {
		return users, 0, nil
	}
	err = s.db.WithContext(ctx).
		Scopes(userFilter(filter)).
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return users, total, nil
}
