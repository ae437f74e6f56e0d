package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shoppingapp/usersapi/revocation"
	"github.com/shoppingapp/usersapi/utils"
)

var ErrMissingToken = errors.New("missing bearer token")

type contextKey string

const claimsKey contextKey = "claims"

type TokenVerifier interface {
	Verify(tokenType, token string) (*utils.Claims, error)
}

func GetTokenFromAuthorizationHeader(authHeader string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Authenticator admits requests carrying a valid, unrevoked access token and
// stores its claims in the request context.
type Authenticator struct {
	tokens  TokenVerifier
	revoked revocation.Checker
	log     *slog.Logger
}

func NewAuthenticator(tokens TokenVerifier, revoked revocation.Checker, log *slog.Logger) *Authenticator {
	if revoked == nil {
		revoked = revocation.Noop{}
	}
	return &Authenticator{tokens: tokens, revoked: revoked, log: log}
}

func (a *Authenticator) IsAccessTokenAuthorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := GetTokenFromAuthorizationHeader(r.Header.Get("Authorization"))
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, utils.AUTHENTICATION_REQUIRED, utils.AUTHENTICATION_REQUIRED_ERROR)
			return
		}
		claims, err := a.tokens.Verify(utils.ACCESS_TYPE, accessToken)
		if err != nil {
			// the client should use its refresh token now
			a.log.Debug("rejected access token", "error", err)
			utils.WriteError(w, http.StatusUnauthorized, utils.INVALID_TOKEN, utils.INVALID_TOKEN_ERROR)
			return
		}
		var issuedAt time.Time
		if claims.IssuedAt != nil {
			issuedAt = claims.IssuedAt.Time
		}
		revoked, err := a.revoked.IsRevoked(r.Context(), claims.UserID, issuedAt)
		if err != nil {
			a.log.Error("revocation check failed", "userId", claims.UserID, "error", err)
			utils.WriteError(w, http.StatusInternalServerError, utils.INTERNAL_ERROR, utils.SERVER_DOWN)
			return
		}
		if revoked {
			utils.WriteError(w, http.StatusUnauthorized, utils.INVALID_TOKEN, utils.INVALID_TOKEN_ERROR)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*utils.Claims)
	return claims, ok
}
