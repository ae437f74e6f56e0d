package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shoppingapp/usersapi/models"
	"github.com/shoppingapp/usersapi/security"
)

var (
	cpfPattern   = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	phonePattern = regexp.MustCompile(`^\(\d{2}\) \d{4,5}-\d{4}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return cpfPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	// bcrypt limits the input in bytes, while max counts runes.
	v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= security.MaxPasswordBytes
	})
	v.RegisterValidation("pastdate", func(fl validator.FieldLevel) bool {
		t, err := parseDate(fl.Field().String())
		return err == nil && !t.After(time.Now())
	})
	return v
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type AddressRequest struct {
	Street       string `json:"street" validate:"max=255"`
	Number       string `json:"number" validate:"max=20"`
	Complement   string `json:"complement" validate:"max=255"`
	Neighborhood string `json:"neighborhood" validate:"max=100"`
	City         string `json:"city" validate:"max=100"`
	State        string `json:"state" validate:"max=100"`
	ZipCode      string `json:"zip_code" validate:"max=20"`
	Country      string `json:"country" validate:"max=100"`
}

type NotificationsRequest struct {
	Email *bool `json:"email"`
	SMS   *bool `json:"sms"`
	Push  *bool `json:"push"`
}

type PreferencesRequest struct {
	Language      string                `json:"language" validate:"omitempty,oneof=pt-BR en-US es-ES"`
	Notifications *NotificationsRequest `json:"notifications"`
	Theme         string                `json:"theme" validate:"omitempty,oneof=light dark"`
}

type RegisterRequest struct {
	Name                   string          `json:"name" validate:"required,min=2,max=100"`
	Email                  string          `json:"email" validate:"required,email,max=191"`
	Password               string          `json:"password" validate:"required,bcryptmax"`
	CPF                    *string         `json:"cpf" validate:"omitempty,cpf"`
	Phone                  *string         `json:"phone" validate:"omitempty,phone"`
	BirthDate              *string         `json:"birth_date" validate:"omitempty,pastdate"`
	Gender                 *string         `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Role                   *string         `json:"role" validate:"omitempty,oneof=CUSTOMER SELLER"`
	Address                *AddressRequest `json:"address"`
	MarketingConsent       *bool           `json:"marketing_consent"`
	NewsletterSubscription *bool           `json:"newsletter_subscription"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,bcryptmax"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,bcryptmax"`
}

type UpdateProfileRequest struct {
	Name                   *string             `json:"name" validate:"omitempty,min=2,max=100"`
	Phone                  *string             `json:"phone" validate:"omitempty,phone"`
	BirthDate              *string             `json:"birth_date" validate:"omitempty,pastdate"`
	Gender                 *string             `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Address                *AddressRequest     `json:"address"`
	Preferences            *PreferencesRequest `json:"preferences"`
	MarketingConsent       *bool               `json:"marketing_consent"`
	NewsletterSubscription *bool               `json:"newsletter_subscription"`
}

type AdminUpdateRequest struct {
	UpdateProfileRequest
	Email             *string `json:"email" validate:"omitempty,email,max=191"`
	CPF               *string `json:"cpf" validate:"omitempty,cpf"`
	Role              *string `json:"role" validate:"omitempty,oneof=ADMIN CUSTOMER SELLER"`
	IsActive          *bool   `json:"is_active"`
	EmailVerified     *bool   `json:"email_verified"`
	PhoneVerified     *bool   `json:"phone_verified"`
	ExternalID        *string `json:"external_id" validate:"omitempty,max=191"`
	IntegrationSource *string `json:"integration_source" validate:"omitempty,max=64"`
}

type ListQuery struct {
	Page     int    `json:"page" validate:"omitempty,min=1,max=100000"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=100"`
	IsActive *bool  `json:"is_active"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN CUSTOMER SELLER"`
	Search   string `json:"search" validate:"omitempty,min=2"`
}

type RequestBody interface {
	RegisterRequest | LoginRequest | RefreshRequest | ForgotPasswordRequest |
		ResetPasswordRequest | ChangePasswordRequest | UpdateProfileRequest | AdminUpdateRequest
}

// RequestError is a malformed or invalid request body or query.
type RequestError struct {
	Violations []string
	Err        error
}

func (e *RequestError) Error() string {
	if len(e.Violations) > 0 {
		return "invalid request: " + strings.Join(e.Violations, "; ")
	}
	return fmt.Sprintf("invalid request: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{Err: err}
	}
	violations := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		field = strings.TrimPrefix(field, "UpdateProfileRequest.")
		violations = append(violations, fmt.Sprintf("%s: %s", field, fe.Tag()))
	}
	return &RequestError{Violations: violations, Err: err}
}

func DecodeValidBody[B RequestBody](r *http.Request) (B, error) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	var requestBody B
	if err := decoder.Decode(&requestBody); err != nil {
		return requestBody, &RequestError{Err: err}
	}
	if err := validate.Struct(requestBody); err != nil {
		return requestBody, validationError(err)
	}
	return requestBody, nil
}

func (a *AddressRequest) toModel() *models.Address {
	if a == nil {
		return nil
	}
	return &models.Address{
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
		Country:      a.Country,
	}
}

func (p *PreferencesRequest) toModel() *models.Preferences {
	if p == nil {
		return nil
	}
	prefs := &models.Preferences{Language: p.Language, Theme: p.Theme}
	if p.Notifications != nil {
		prefs.Notifications = &models.NotificationPreferences{
			Email: p.Notifications.Email,
			SMS:   p.Notifications.SMS,
			Push:  p.Notifications.Push,
		}
	}
	return prefs
}

func optionalDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}

func optionalGender(s *string) *models.Gender {
	if s == nil {
		return nil
	}
	g := models.Gender(*s)
	return &g
}

func optionalRole(s *string) *models.Role {
	if s == nil {
		return nil
	}
	r := models.Role(*s)
	return &r
}

func boolValue(b *bool) bool {
	return b != nil && *b
}
