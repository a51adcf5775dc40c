package repository

import (
	"context"

	"github.com/ousidus/ticket-machine/internal/models"
)

type TicketRepository interface {
	// List returns a page of tickets plus the total count for the filter,
	// ordered by creation time descending unless the filter says otherwise.
	List(ctx context.Context, f TicketFilter) ([]models.Ticket, int, error)
	Get(ctx context.Context, id string) (*models.Ticket, error)
	// Create persists t with status forced to open, filling in the
	// generated id and timestamps.
	Create(ctx context.Context, t *models.Ticket) error
	// Update applies the patch and refreshes updated_at, returning the
	// stored row. ErrNotFound when no ticket matches.
	Update(ctx context.Context, id string, p TicketPatch) (*models.Ticket, error)
}

type CommentRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]models.Comment, error)
	Create(ctx context.Context, ticketID, userID, body string) (*models.Comment, error)
}

type UserRepository interface {
	Create(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, string /*passwordHash*/, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// List is the assignment directory. Callers must treat ErrForbidden as
	// "no directory available", not as a fatal condition.
	List(ctx context.Context) ([]models.User, error)
}

type RoleRepository interface {
	// Get returns ErrNotFound when no role record exists; callers decide
	// how the absence degrades.
	Get(ctx context.Context, userID string) (models.Role, error)
	Set(ctx context.Context, userID string, role models.Role) error
}
