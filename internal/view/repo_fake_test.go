package view

import (
	"context"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
)

// fakeRepo serves canned tickets, newest-created-first like the real one.
type fakeRepo struct {
	tickets   []models.Ticket
	err       error
	listCalls int
}

func (f *fakeRepo) List(_ context.Context, flt repository.TicketFilter) ([]models.Ticket, int, error) {
	f.listCalls++
	if f.err != nil {
		return nil, 0, f.err
	}
	var matched []models.Ticket
	for _, t := range f.tickets {
		if flt.OwnerID != "" && t.UserID != flt.OwnerID {
			continue
		}
		matched = append(matched, t)
	}
	total := len(matched)
	if flt.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[flt.Offset:]
	if flt.Limit > 0 && len(matched) > flt.Limit {
		matched = matched[:flt.Limit]
	}
	return matched, total, nil
}

func (f *fakeRepo) Get(context.Context, string) (*models.Ticket, error) {
	panic("not used by projections")
}

func (f *fakeRepo) Create(context.Context, *models.Ticket) error {
	panic("not used by projections")
}

func (f *fakeRepo) Update(context.Context, string, repository.TicketPatch) (*models.Ticket, error) {
	panic("not used by projections")
}
