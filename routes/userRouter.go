package routes

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/shoppingapp/usersapi/accounts"
	"github.com/shoppingapp/usersapi/middlewares"
	"github.com/shoppingapp/usersapi/models"
	"github.com/shoppingapp/usersapi/utils"
)

func UserRouter(s *mux.Router, h *handlers, auth *middlewares.Authenticator) {
	authed := func(f http.HandlerFunc, guards ...func(http.Handler) http.Handler) http.Handler {
		var next http.Handler = f
		for i := len(guards) - 1; i >= 0; i-- {
			next = guards[i](next)
		}
		return auth.IsAccessTokenAuthorized(next)
	}
	admin := middlewares.RequireRole(models.RoleAdmin)

	// /profile and /change-password must be registered before /{id}
	s.Handle("/profile", authed(h.GetProfile)).Methods(http.MethodGet)
	s.Handle("/profile", authed(h.UpdateProfile)).Methods(http.MethodPut)
	s.Handle("/change-password", authed(h.ChangePassword)).Methods(http.MethodPut)

	s.Handle("", authed(h.ListUsers, admin)).Methods(http.MethodGet)
	s.Handle("/{id}", authed(h.GetUser, middlewares.RequireOwnershipOrAdmin("id"))).Methods(http.MethodGet)
	s.Handle("/{id}", authed(h.UpdateUser, admin)).Methods(http.MethodPut)
	s.Handle("/{id}", authed(h.DeleteUser, admin)).Methods(http.MethodDelete)
}

// caller is only reached behind IsAccessTokenAuthorized, so the claims are
// always present.
func caller(r *http.Request) *utils.Claims {
	claims, _ := middlewares.ClaimsFromContext(r.Context())
	return claims
}

func pathID(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if err := validate.Var(id, "required,uuid"); err != nil {
		return "", &RequestError{Violations: []string{"id: uuid"}, Err: err}
	}
	return id, nil
}

func (h *handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetProfile(r.Context(), caller(r).UserID)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewUserResponse(user))
}

func (p UpdateProfileRequest) toUpdate() accounts.ProfileUpdate {
	var name *string
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		name = &trimmed
	}
	return accounts.ProfileUpdate{
		Name:                   name,
		Phone:                  p.Phone,
		BirthDate:              optionalDate(p.BirthDate),
		Gender:                 optionalGender(p.Gender),
		Address:                p.Address.toModel(),
		Preferences:            p.Preferences.toModel(),
		MarketingConsent:       p.MarketingConsent,
		NewsletterSubscription: p.NewsletterSubscription,
	}
}

func (h *handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[UpdateProfileRequest](r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	user, err := h.svc.UpdateProfile(r.Context(), caller(r).UserID, req.toUpdate())
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewUserResponse(user))
}

func (h *handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[ChangePasswordRequest](r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	err = h.svc.ChangePassword(r.Context(), caller(r).UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.MessageResponse{Message: utils.PASSWORD_CHANGED})
}

func parseListQuery(values url.Values) (ListQuery, error) {
	var q ListQuery
	var violations []string
	parseInt := func(key string, dst *int) {
		raw := values.Get(key)
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			violations = append(violations, key+": number")
			return
		}
		*dst = n
	}
	parseInt("page", &q.Page)
	parseInt("limit", &q.Limit)
	if raw := values.Get("is_active"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			violations = append(violations, "is_active: boolean")
		} else {
			q.IsActive = &b
		}
	}
	q.Role = values.Get("role")
	q.Search = strings.TrimSpace(values.Get("search"))
	if len(violations) > 0 {
		return q, &RequestError{Violations: violations, Err: fmt.Errorf("malformed query")}
	}
	if err := validate.Struct(q); err != nil {
		return q, validationError(err)
	}
	return q, nil
}

func (h *handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	filter := models.UserFilter{
		Page:     q.Page,
		Limit:    q.Limit,
		IsActive: q.IsActive,
		Search:   q.Search,
	}
	if q.Role != "" {
		role := models.Role(q.Role)
		filter.Role = &role
	}
	page, err := h.svc.List(r.Context(), filter)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	res := UserListResponse{
		Data: make([]UserResponse, 0, len(page.Users)),
		Meta: PageMeta{Total: page.Total, Page: page.Page, Limit: page.Limit},
	}
	for _, u := range page.Users {
		res.Data = append(res.Data, NewUserResponse(u))
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	user, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewUserResponse(user))
}

func (h *handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	req, err := DecodeValidBody[AdminUpdateRequest](r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	in := accounts.AdminUpdate{
		ProfileUpdate:     req.UpdateProfileRequest.toUpdate(),
		Email:             req.Email,
		CPF:               req.CPF,
		Role:              optionalRole(req.Role),
		IsActive:          req.IsActive,
		EmailVerified:     req.EmailVerified,
		PhoneVerified:     req.PhoneVerified,
		ExternalID:        req.ExternalID,
		IntegrationSource: req.IntegrationSource,
	}
	user, err := h.svc.AdminUpdate(r.Context(), caller(r).UserID, id, in)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewUserResponse(user))
}

func (h *handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	user, err := h.svc.SoftDelete(r.Context(), caller(r).UserID, id)
	if err != nil {
		GenericAuthError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewUserResponse(user))
}
