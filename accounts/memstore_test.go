package accounts

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shoppingapp/usersapi/models"
)

// memStore is an in-memory Store. UpdateUser copies only the named fields, so
// a missing field name in a mutation shows up as a lost write.
type memStore struct {
	mu          sync.Mutex
	users       map[string]models.User
	tokens      map[string]models.RefreshToken
	nextTokenID uint
	clock       func() time.Time
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{
		users:  map[string]models.User{},
		tokens: map[string]models.RefreshToken{},
		clock:  clock,
	}
}

func (m *memStore) snapshot() (map[string]models.User, map[string]models.RefreshToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make(map[string]models.User, len(m.users))
	for k, v := range m.users {
		users[k] = v
	}
	tokens := make(map[string]models.RefreshToken, len(m.tokens))
	for k, v := range m.tokens {
		tokens[k] = v
	}
	return users, tokens
}

func (m *memStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	users, tokens := m.snapshot()
	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users, m.tokens = users, tokens
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || (u.CPF != nil && user.CPF != nil && *u.CPF == *user.CPF) {
			return models.ErrDuplicate
		}
	}
	now := m.clock()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) find(match func(models.User) bool) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (m *memStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *memStore) FindUserByID(ctx context.Context, id string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *memStore) FindUserByResetTokenHash(ctx context.Context, digest string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.ResetTokenHash != nil && *u.ResetTokenHash == digest })
}

func (m *memStore) UpdateUser(ctx context.Context, user *models.User, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.ID]
	if !ok {
		return models.ErrNotFound
	}
	for _, u := range m.users {
		if u.ID == user.ID {
			continue
		}
		for _, f := range fields {
			if f == "Email" && u.Email == user.Email {
				return models.ErrDuplicate
			}
			if f == "CPF" && u.CPF != nil && user.CPF != nil && *u.CPF == *user.CPF {
				return models.ErrDuplicate
			}
		}
	}
	dst := reflect.ValueOf(&stored).Elem()
	src := reflect.ValueOf(user).Elem()
	for _, f := range fields {
		dst.FieldByName(f).Set(src.FieldByName(f))
	}
	stored.UpdatedAt = m.clock()
	m.users[user.ID] = stored
	return nil
}

func (m *memStore) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.User
	search := strings.ToLower(filter.Search)
	for _, u := range m.users {
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]models.User{}, matched[start:end]...), total, nil
}

func (m *memStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token.TokenHash]; ok {
		return models.ErrDuplicate
	}
	m.nextTokenID++
	token.ID = m.nextTokenID
	token.CreatedAt = m.clock()
	m.tokens[token.TokenHash] = *token
	return nil
}

func (m *memStore) FindRefreshToken(ctx context.Context, tokenHash string) (models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[tokenHash]
	if !ok {
		return token, models.ErrNotFound
	}
	return token, nil
}

func (m *memStore) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[tokenHash]; !ok {
		return models.ErrNotFound
	}
	delete(m.tokens, tokenHash)
	return nil
}

func (m *memStore) DeleteRefreshTokensForUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, k)
		}
	}
	return nil
}

func (m *memStore) tokenCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}
