package middlewares

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shoppingapp/usersapi/models"
	"github.com/shoppingapp/usersapi/utils"
)

// RequireRole must run after IsAccessTokenAuthorized.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				utils.WriteError(w, http.StatusUnauthorized, utils.AUTHENTICATION_REQUIRED, utils.AUTHENTICATION_REQUIRED_ERROR)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteError(w, http.StatusForbidden, utils.INSUFFICIENT_PERMISSIONS, utils.INSUFFICIENT_PERMISSIONS_ERROR)
		})
	}
}

// RequireOwnershipOrAdmin lets through admins and the user whose id is in
// the route variable param.
func RequireOwnershipOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				utils.WriteError(w, http.StatusUnauthorized, utils.AUTHENTICATION_REQUIRED, utils.AUTHENTICATION_REQUIRED_ERROR)
				return
			}
			if claims.Role != models.RoleAdmin && claims.UserID != mux.Vars(r)[param] {
				utils.WriteError(w, http.StatusForbidden, utils.INSUFFICIENT_PERMISSIONS, utils.INSUFFICIENT_PERMISSIONS_ERROR)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
