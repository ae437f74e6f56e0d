package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shoppingapp/usersapi/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps (page-1)*limit far from overflowing.
	MaxPage = 100000
)

// ProfileUpdate holds the fields a user may change on their own record. Nil
// fields are left alone.
type ProfileUpdate struct {
	Name                   *string
	Phone                  *string
	BirthDate              *time.Time
	Gender                 *models.Gender
	Address                *models.Address
	Preferences            *models.Preferences
	MarketingConsent       *bool
	NewsletterSubscription *bool
}

// AdminUpdate extends ProfileUpdate with fields only an administrator may set.
// Passwords are never changed through it.
type AdminUpdate struct {
	ProfileUpdate
	Email             *string
	CPF               *string
	Role              *models.Role
	IsActive          *bool
	EmailVerified     *bool
	PhoneVerified     *bool
	ExternalID        *string
	IntegrationSource *string
}

type UserPage struct {
	Users []models.User
	Total int64
	Page  int
	Limit int
}

func (p ProfileUpdate) apply(u *models.User) []string {
	var fields []string
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
		fields = append(fields, "Name")
	}
	if p.Phone != nil {
		u.Phone = p.Phone
		fields = append(fields, "Phone")
	}
	if p.BirthDate != nil {
		u.BirthDate = p.BirthDate
		fields = append(fields, "BirthDate")
	}
	if p.Gender != nil {
		u.Gender = p.Gender
		fields = append(fields, "Gender")
	}
	if p.Address != nil {
		u.Address = p.Address
		fields = append(fields, "Address")
	}
	if p.Preferences != nil {
		u.Preferences = p.Preferences
		fields = append(fields, "Preferences")
	}
	if p.MarketingConsent != nil {
		u.MarketingConsent = *p.MarketingConsent
		fields = append(fields, "MarketingConsent")
	}
	if p.NewsletterSubscription != nil {
		u.NewsletterSubscription = *p.NewsletterSubscription
		fields = append(fields, "NewsletterSubscription")
	}
	return fields
}

func (a AdminUpdate) apply(u *models.User) []string {
	fields := a.ProfileUpdate.apply(u)
	if a.Email != nil {
		u.Email = normalizeEmail(*a.Email)
		fields = append(fields, "Email")
	}
	if a.CPF != nil {
		u.CPF = a.CPF
		fields = append(fields, "CPF")
	}
	if a.Role != nil {
		u.Role = *a.Role
		fields = append(fields, "Role")
	}
	if a.IsActive != nil {
		u.IsActive = *a.IsActive
		fields = append(fields, "IsActive")
	}
	if a.EmailVerified != nil {
		u.EmailVerified = *a.EmailVerified
		fields = append(fields, "EmailVerified")
	}
	if a.PhoneVerified != nil {
		u.PhoneVerified = *a.PhoneVerified
		fields = append(fields, "PhoneVerified")
	}
	if a.ExternalID != nil {
		u.ExternalID = a.ExternalID
		fields = append(fields, "ExternalID")
	}
	if a.IntegrationSource != nil {
		u.IntegrationSource = a.IntegrationSource
		fields = append(fields, "IntegrationSource")
	}
	return fields
}

func (s *Service) GetByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return user, ErrUserNotFound
	}
	return user, err
}

func (s *Service) GetProfile(ctx context.Context, userID string) (models.User, error) {
	return s.GetByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (models.User, error) {
	return s.update(ctx, userID, userID, in.apply)
}

func (s *Service) AdminUpdate(ctx context.Context, actorID, id string, in AdminUpdate) (models.User, error) {
	user, err := s.update(ctx, actorID, id, in.apply)
	if err != nil {
		return user, err
	}
	if in.IsActive != nil && !*in.IsActive {
		s.endSessions(ctx, user.ID)
	}
	return user, nil
}

// SoftDelete deactivates the user and ends all of their sessions.
func (s *Service) SoftDelete(ctx context.Context, actorID, id string) (models.User, error) {
	inactive := false
	user, err := s.update(ctx, actorID, id, AdminUpdate{IsActive: &inactive}.apply)
	if err != nil {
		return user, err
	}
	s.endSessions(ctx, user.ID)
	s.log.Info("user deactivated", "userId", user.ID, "by", actorID)
	return user, nil
}

func (s *Service) update(ctx context.Context, actorID, id string, apply func(*models.User) []string) (models.User, error) {
	var user models.User
	err := s.store.Transaction(ctx, func(tx Store) error {
		u, err := tx.FindUserByID(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		previousEmail := u.Email
		fields := apply(&u)
		if len(fields) == 0 {
			user = u
			return nil
		}
		if u.Email != previousEmail {
			other, err := tx.FindUserByEmail(ctx, u.Email)
			if err == nil && other.ID != u.ID {
				return ErrEmailAlreadyExists
			}
			if err != nil && !errors.Is(err, models.ErrNotFound) {
				return err
			}
		}
		u.UpdatedBy = &actorID
		fields = append(fields, "UpdatedBy")
		if err := tx.UpdateUser(ctx, &u, fields...); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return ErrDuplicateResource
			}
			return err
		}
		if !u.IsActive {
			if err := tx.DeleteRefreshTokensForUser(ctx, u.ID); err != nil {
				return err
			}
		}
		user = u
		return nil
	})
	return user, err
}

// List returns one page of users matching filter, newest first. Page and
// limit are clamped to their allowed ranges.
func (s *Service) List(ctx context.Context, filter models.UserFilter) (UserPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > MaxPage {
		filter.Page = MaxPage
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	filter.Search = strings.TrimSpace(filter.Search)
	users, total, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: users, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
