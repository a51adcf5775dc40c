package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/utils"
)

type ctxKey string

const (
	CtxUserID ctxKey = "uid"
	CtxRole   ctxKey = "role"
)

// RoleResolver maps an authenticated user to an effective role. The
// service-layer implementation fails open to the least-privileged role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) models.Role
}

// WithAuth reads the JWT from the "session" cookie or an Authorization
// bearer header, resolves the role, and stores both in the context.
// Requests without a valid token pass through unauthenticated; handlers
// and the Require* middlewares decide whether that matters.
func WithAuth(log zerolog.Logger, secret string, roles RoleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tok string
			if c, err := r.Cookie("session"); err == nil {
				tok = c.Value
			} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tok = strings.TrimPrefix(h, "Bearer ")
			}

			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := utils.ParseJWT(secret, tok)
			if err != nil {
				// Clear a broken/expired cookie so it stops being sent.
				http.SetCookie(w, &http.Cookie{
					Name:     "session",
					Value:    "",
					Path:     "/",
					HttpOnly: true,
					MaxAge:   -1,
				})
				next.ServeHTTP(w, r)
				return
			}

			role := models.RoleUser
			if roles != nil {
				role = roles.ResolveRole(r.Context(), claims.UserID)
			}

			ctx := context.WithValue(r.Context(), CtxUserID, claims.UserID)
			ctx = context.WithValue(ctx, CtxRole, string(role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleFrom returns the effective role stored by WithAuth, defaulting to
// the least-privileged role.
func RoleFrom(ctx context.Context) models.Role {
	if s, ok := utils.GetString(ctx, CtxRole); ok && models.Role(s).Valid() {
		return models.Role(s)
	}
	return models.RoleUser
}

// UserIDFrom returns the authenticated user id, empty when anonymous.
func UserIDFrom(ctx context.Context) string {
	s, _ := utils.GetString(ctx, CtxUserID)
	return s
}
