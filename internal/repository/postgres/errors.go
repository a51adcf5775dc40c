package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ousidus/ticket-machine/internal/repository"
)

// mapError folds driver-level failures into the repository sentinels so
// callers never import pgx.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrAlreadyExists
		case "23502", "23503", "23514":
			return repository.ErrInvalidInput
		case "42501":
			return repository.ErrForbidden
		}
	}
	return err
}
