package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/shoppingapp/usersapi/accounts"
	"github.com/shoppingapp/usersapi/models"
	"github.com/shoppingapp/usersapi/utils"
)

func AuthRouter(s *mux.Router, h *handlers, limit func(http.Handler) http.Handler) {
	s.Handle("/register", limit(http.HandlerFunc(h.Register))).Methods(http.MethodPost)
	s.Handle("/login", limit(http.HandlerFunc(h.Login))).Methods(http.MethodPost)
	s.Handle("/refresh", limit(http.HandlerFunc(h.Refresh))).Methods(http.MethodPost)
	s.Handle("/forgot-password", limit(http.HandlerFunc(h.ForgotPassword))).Methods(http.MethodPost)
	s.Handle("/reset-password", limit(http.HandlerFunc(h.ResetPassword))).Methods(http.MethodPost)
	s.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
}

func (h *handlers) Register(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[RegisterRequest](r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	in := accounts.RegisterInput{
		Name:                   strings.TrimSpace(req.Name),
		Email:                  req.Email,
		Password:               req.Password,
		CPF:                    req.CPF,
		Phone:                  req.Phone,
		BirthDate:              optionalDate(req.BirthDate),
		Gender:                 optionalGender(req.Gender),
		Address:                req.Address.toModel(),
		MarketingConsent:       boolValue(req.MarketingConsent),
		NewsletterSubscription: boolValue(req.NewsletterSubscription),
	}
	if req.Role != nil {
		in.Role = models.Role(*req.Role)
	}
	res, err := h.svc.Register(r.Context(), in)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, newTokenResponse(res))
}

func (h *handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[LoginRequest](r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newTokenResponse(res))
}

func (h *handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[RefreshRequest](r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	res, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newTokenResponse(res))
}

func (h *handlers) Logout(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[RefreshRequest](r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword answers the same way whether or not the email belongs to an
// active account. The token only leaves the service through the notifier.
func (h *handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[ForgotPasswordRequest](r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	_, err = h.svc.ForgotPassword(r.Context(), req.Email)
	if err != nil && !errors.Is(err, accounts.ErrEmailNotFound) && !errors.Is(err, accounts.ErrUserInactive) {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.MessageResponse{Message: utils.PASSWORD_RESET_REQUESTED})
}

func (h *handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[ResetPasswordRequest](r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.MessageResponse{Message: utils.PASSWORD_CHANGED})
}
