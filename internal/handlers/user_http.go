package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
	"github.com/ousidus/ticket-machine/internal/utils"
)

type UserService interface {
	Directory(ctx context.Context) ([]models.User, error)
	ResolveRole(ctx context.Context, userID string) models.Role
}

type UserHTTP struct {
	svc   UserService
	users repository.UserRepository
	roles repository.RoleRepository
	log   zerolog.Logger
}

func NewUserHTTP(svc UserService, users repository.UserRepository, roles repository.RoleRepository, log zerolog.Logger) *UserHTTP {
	return &UserHTTP{svc: svc, users: users, roles: roles, log: log}
}

type userDTO struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

// List serves the assignee directory. A failed lookup against a locked
// down users table comes back as an empty list, not an error, so the
// assignment dropdown degrades instead of breaking the page.
func (h *UserHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.svc.Directory(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}

		out := make([]userDTO, 0, len(users))
		for _, u := range users {
			out = append(out, userDTO{
				ID:    u.ID,
				Email: u.Email,
				Name:  u.Name,
				Role:  h.svc.ResolveRole(r.Context(), u.ID),
			})
		}
		utils.JSON(w, http.StatusOK, out)
	}
}

func (h *UserHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		u, err := h.users.GetByID(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		if u == nil {
			utils.Error(w, http.StatusNotFound, "user not found")
			return
		}

		utils.JSON(w, http.StatusOK, userDTO{
			ID:    u.ID,
			Email: u.Email,
			Name:  u.Name,
			Role:  h.svc.ResolveRole(r.Context(), u.ID),
		})
	}
}

type setRoleIn struct {
	Role string `json:"role"`
}

// SetRole updates a user's role record. The new role takes effect on the
// user's next request because roles are resolved per request, not baked
// into the session token.
func (h *UserHTTP) SetRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var in setRoleIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		role := models.Role(strings.ToLower(strings.TrimSpace(in.Role)))
		if !role.Valid() {
			utils.Error(w, http.StatusBadRequest, "invalid role")
			return
		}

		if err := h.roles.Set(r.Context(), id, role); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
