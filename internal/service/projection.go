package service

import "github.com/ousidus/ticket-machine/internal/models"

// Projection is the slice of a view the service needs for optimistic
// updates: rewrite an entry now, and put it back if the write fails.
// view.List and view.Board both satisfy it.
type Projection interface {
	Mutate(id string, apply func(*models.Ticket)) (prev *models.Ticket, ok bool)
	Revert(prev models.Ticket)
}
