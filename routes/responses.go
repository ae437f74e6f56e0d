package routes

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/shoppingapp/usersapi/accounts"
	"github.com/shoppingapp/usersapi/models"
	"github.com/shoppingapp/usersapi/security"
	"github.com/shoppingapp/usersapi/utils"
)

type UserResponse struct {
	ID                     string              `json:"id"`
	Name                   string              `json:"name"`
	Email                  string              `json:"email"`
	CPF                    *string             `json:"cpf,omitempty"`
	Phone                  *string             `json:"phone,omitempty"`
	BirthDate              *string             `json:"birthDate,omitempty"`
	Gender                 *models.Gender      `json:"gender,omitempty"`
	Role                   models.Role         `json:"role"`
	IsActive               bool                `json:"isActive"`
	EmailVerified          bool                `json:"emailVerified"`
	PhoneVerified          bool                `json:"phoneVerified"`
	LastLogin              *time.Time          `json:"lastLogin,omitempty"`
	Address                *models.Address     `json:"address,omitempty"`
	Preferences            *models.Preferences `json:"preferences,omitempty"`
	MarketingConsent       bool                `json:"marketingConsent"`
	NewsletterSubscription bool                `json:"newsletterSubscription"`
	ExternalID             *string             `json:"externalId,omitempty"`
	IntegrationSource      *string             `json:"integrationSource,omitempty"`
	CreatedBy              *string             `json:"createdBy,omitempty"`
	UpdatedBy              *string             `json:"updatedBy,omitempty"`
	CreatedAt              time.Time           `json:"createdAt"`
	UpdatedAt              time.Time           `json:"updatedAt"`
}

func NewUserResponse(u models.User) UserResponse {
	res := UserResponse{
		ID:                     u.ID,
		Name:                   u.Name,
		Email:                  u.Email,
		CPF:                    u.CPF,
		Phone:                  u.Phone,
		Gender:                 u.Gender,
		Role:                   u.Role,
		IsActive:               u.IsActive,
		EmailVerified:          u.EmailVerified,
		PhoneVerified:          u.PhoneVerified,
		LastLogin:              u.LastLoginAt,
		Address:                u.Address,
		Preferences:            u.Preferences,
		MarketingConsent:       u.MarketingConsent,
		NewsletterSubscription: u.NewsletterSubscription,
		ExternalID:             u.ExternalID,
		IntegrationSource:      u.IntegrationSource,
		CreatedBy:              u.CreatedBy,
		UpdatedBy:              u.UpdatedBy,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
	if u.BirthDate != nil {
		d := u.BirthDate.Format("2006-01-02")
		res.BirthDate = &d
	}
	return res
}

type TokenResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
}

func newTokenResponse(res accounts.AuthResult) TokenResponse {
	return TokenResponse{
		User:         NewUserResponse(res.User),
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresIn:    int64(time.Until(res.Tokens.AccessExpiresAt).Round(time.Second).Seconds()),
	}
}

type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type UserListResponse struct {
	Data []UserResponse `json:"data"`
	Meta PageMeta       `json:"meta"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{accounts.ErrInvalidCredentials, http.StatusUnauthorized, utils.INVALID_CREDENTIALS, utils.GENERIC_LOGIN_ERROR},
	{accounts.ErrUserInactive, http.StatusForbidden, utils.USER_INACTIVE, utils.USER_INACTIVE_ERROR},
	{accounts.ErrInvalidOrExpiredToken, http.StatusBadRequest, utils.INVALID_OR_EXPIRED_TOKEN, utils.GENERIC_PASSWORD_RESET_ERROR},
	{accounts.ErrPasswordReused, http.StatusBadRequest, utils.PASSWORD_REUSED, utils.PASSWORD_REUSED_ERROR},
	{accounts.ErrEmailAlreadyExists, http.StatusConflict, utils.EMAIL_ALREADY_EXISTS, utils.EMAIL_TAKEN_SIGNUP_ERROR},
	{accounts.ErrDuplicateResource, http.StatusConflict, utils.DUPLICATE_RESOURCE, utils.GENERIC_DUPLICATE_ERROR},
	{accounts.ErrUserNotFound, http.StatusNotFound, utils.USER_NOT_FOUND, utils.USER_NOT_FOUND_ERROR},
	{accounts.ErrInvalidCurrentPassword, http.StatusBadRequest, utils.INVALID_CURRENT_PASSWORD, utils.CURRENT_PASSWORD_ERROR},
	{accounts.ErrRoleNotAllowed, http.StatusBadRequest, utils.VALIDATION_ERROR, utils.GENERIC_VALIDATION_ERROR},
	{accounts.ErrInvalidToken, http.StatusUnauthorized, utils.INVALID_TOKEN, utils.INVALID_TOKEN_ERROR},
}

// GenericAuthError turns a service or request error into its JSON response.
// Anything unrecognised is logged and reported as a 500.
func GenericAuthError(w http.ResponseWriter, log *slog.Logger, err error) {
	var requestErr *RequestError
	if errors.As(err, &requestErr) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse{
			Code:       utils.VALIDATION_ERROR,
			Message:    utils.GENERIC_VALIDATION_ERROR,
			Violations: requestErr.Violations,
		})
		return
	}
	var weak *security.WeakPasswordError
	if errors.As(err, &weak) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse{
			Code:       utils.WEAK_PASSWORD,
			Message:    utils.WEAK_PASSWORD_ERROR,
			Violations: weak.Violations,
		})
		return
	}
	var locked *accounts.AccountLockedError
	if errors.As(err, &locked) {
		now := time.Now()
		retryAfter := int(math.Ceil(locked.Until.Sub(now).Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
		utils.WriteError(w, http.StatusLocked, utils.ACCOUNT_LOCKED,
			utils.ACCOUNT_LOCKED_ERROR+" "+utils.GenerateBanMessage(locked.Until, now))
		return
	}
	if errors.Is(err, accounts.ErrAccountLocked) {
		utils.WriteError(w, http.StatusLocked, utils.ACCOUNT_LOCKED, utils.ACCOUNT_LOCKED_ERROR)
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			utils.WriteError(w, m.status, m.code, m.message)
			return
		}
	}
	log.Error("request failed", "error", err)
	utils.WriteError(w, http.StatusInternalServerError, utils.INTERNAL_ERROR, utils.SERVER_DOWN)
}
