package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ousidus/ticket-machine/internal/models"
)

type CommentRepo struct{ db *pgxpool.Pool }

func NewCommentRepo(db *pgxpool.Pool) *CommentRepo { return &CommentRepo{db: db} }

func (r *CommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, ticket_id::text, user_id::text, body, created_at
		FROM ticket_comments
		WHERE ticket_id = $1
		ORDER BY created_at ASC
	`, ticketID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CommentRepo) Create(ctx context.Context, ticketID, userID, body string) (*models.Comment, error) {
	var c models.Comment
	err := r.db.QueryRow(ctx, `
		INSERT INTO ticket_comments (ticket_id, user_id, body)
		VALUES ($1, $2, $3)
		RETURNING id::text, ticket_id::text, user_id::text, body, created_at
	`, ticketID, userID, body).Scan(&c.ID, &c.TicketID, &c.UserID, &c.Body, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}
