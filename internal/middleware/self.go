package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/utils"
)

// RequireSelfOrRoles allows if {id} == ctx user id OR the effective role
// is in the given list.
func RequireSelfOrRoles(roles ...models.Role) func(http.Handler) http.Handler {
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := roleSet[RoleFrom(r.Context())]; ok {
				next.ServeHTTP(w, r)
				return
			}
			uid := UserIDFrom(r.Context())
			if uid != "" && chi.URLParam(r, "id") == uid {
				next.ServeHTTP(w, r)
				return
			}
			utils.Error(w, http.StatusForbidden, "forbidden")
		})
	}
}
