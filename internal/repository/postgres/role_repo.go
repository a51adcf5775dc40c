package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ousidus/ticket-machine/internal/models"
)

type RoleRepo struct{ db *pgxpool.Pool }

func NewRoleRepo(db *pgxpool.Pool) *RoleRepo { return &RoleRepo{db: db} }

// Get returns repository.ErrNotFound when the user has no role record.
// The fail-open default lives in the service layer, not here.
func (r *RoleRepo) Get(ctx context.Context, userID string) (models.Role, error) {
	var role models.Role
	err := r.db.QueryRow(ctx, `
		SELECT role FROM user_roles WHERE user_id = $1
	`, userID).Scan(&role)
	if err != nil {
		return "", mapError(err)
	}
	return role, nil
}

func (r *RoleRepo) Set(ctx context.Context, userID string, role models.Role) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
	`, userID, role)
	return mapError(err)
}
