// Package view maintains in-memory projections of the ticket collection.
// Each projection owns its own copies of the records: a load replaces the
// projection wholesale, change feed events merge into it, and services
// apply optimistic local mutations that can be reverted if persistence
// fails. Convergence between local writes and remote events is decided by
// the updated_at timestamp: a write older than what the projection already
// holds is dropped.
package view

import (
	"context"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
)

const pageSize = 200

// fetchAll pages through the repository until the full matching set is in
// hand. Projections hold complete sets, not pages.
func fetchAll(ctx context.Context, repo repository.TicketRepository, ownerID string) ([]models.Ticket, error) {
	var out []models.Ticket
	for offset := 0; ; offset += pageSize {
		page, _, err := repo.List(ctx, repository.TicketFilter{
			OwnerID: ownerID,
			Limit:   pageSize,
			Offset:  offset,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
	}
}

// stale reports whether incoming lost the race against what the
// projection already holds.
func stale(existing, incoming models.Ticket) bool {
	return incoming.UpdatedAt.Before(existing.UpdatedAt)
}
