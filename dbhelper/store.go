package dbhelper

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shoppingapp/usersapi/accounts"
	"github.com/shoppingapp/usersapi/models"
)

// Store is the gorm implementation of accounts.Store.
type Store struct {
	db *gorm.DB
	// forUpdate is set on stores bound to a transaction.
	forUpdate bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx accounts.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, forUpdate: true})
	})
}

// users scopes a user query, locking the selected rows inside a transaction.
func (s *Store) users(ctx context.Context) *gorm.DB {
	q := s.db.WithContext(ctx)
	if s.forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.ErrDuplicate
	}
	return err
}
