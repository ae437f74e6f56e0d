package routes

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shoppingapp/usersapi/accounts"
	"github.com/shoppingapp/usersapi/middlewares"
	"github.com/shoppingapp/usersapi/models"
	"github.com/shoppingapp/usersapi/utils"
)

const APIPrefix = "/api/v1/user"

// AccountService is the part of accounts.Service the HTTP layer uses.
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (accounts.AuthResult, error)
	Login(ctx context.Context, email, password string) (accounts.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (accounts.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	GetProfile(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, in accounts.ProfileUpdate) (models.User, error)
	List(ctx context.Context, filter models.UserFilter) (accounts.UserPage, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	AdminUpdate(ctx context.Context, actorID, id string, in accounts.AdminUpdate) (models.User, error)
	SoftDelete(ctx context.Context, actorID, id string) (models.User, error)
}

type Options struct {
	Service   AccountService
	Auth      *middlewares.Authenticator
	RateLimit func(http.Handler) http.Handler
	Logger    *slog.Logger
	// Health reports whether the backing services are reachable.
	Health func(ctx context.Context) error
}

type handlers struct {
	svc    AccountService
	log    *slog.Logger
	health func(ctx context.Context) error
}

func NewRouter(opts Options) *mux.Router {
	r := mux.NewRouter()
	r.StrictSlash(true)
	CreateRoutes(r, opts)
	return r
}

func CreateRoutes(r *mux.Router, opts Options) {
	h := &handlers{svc: opts.Service, log: opts.Logger, health: opts.Health}
	if h.log == nil {
		h.log = slog.Default()
	}
	limit := opts.RateLimit
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	s := r.PathPrefix(APIPrefix).Subrouter()
	AuthRouter(s, h, limit)
	UserRouter(s, h, opts.Auth)
}

func (h *handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.log.Warn("health check failed", "error", err)
			utils.WriteJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
