package view

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/feed"
	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
)

// List is the flat projection: newest creation time first at load, with
// optimistic and remote inserts placed at the head. An empty ownerID makes
// the projection unscoped.
type List struct {
	repo    repository.TicketRepository
	log     zerolog.Logger
	ownerID string

	mu      sync.Mutex
	items   []models.Ticket
	loading bool
	err     error
}

func NewList(repo repository.TicketRepository, log zerolog.Logger, ownerID string) *List {
	return &List{
		repo:    repo,
		log:     log.With().Str("projection", "list").Logger(),
		ownerID: ownerID,
	}
}

// Load replaces the projection wholesale. On failure the previous snapshot
// is kept and Err reports the failure until the next successful load.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	l.loading = true
	l.mu.Unlock()

	items, err := fetchAll(ctx, l.repo, l.ownerID)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.err = err
		return err
	}
	l.err = nil
	l.items = make([]models.Ticket, 0, len(items))
	for _, t := range items {
		l.items = append(l.items, t.Clone())
	}
	return nil
}

// Refresh is the caller-driven retry after a failed load.
func (l *List) Refresh(ctx context.Context) error { return l.Load(ctx) }

// Apply merges a remote change feed event. Inserts for an id already
// present are applied as updates; deletes for an unknown id are a no-op.
func (l *List) Apply(ev feed.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := ev.Ticket.ID
	if ev.Op == feed.OpDelete {
		l.remove(id)
		return
	}

	// A scoped projection never holds other owners' tickets. Remove any
	// stale copy in case ownership changed out of band.
	if l.ownerID != "" && ev.Ticket.UserID != l.ownerID {
		l.remove(id)
		return
	}

	if i := l.index(id); i >= 0 {
		if stale(l.items[i], ev.Ticket) {
			l.log.Debug().Str("ticket", id).Msg("dropping stale remote event")
			return
		}
		l.items[i] = ev.Ticket.Clone()
		return
	}

	// Unseen id: both inserts and catch-up updates land at the head.
	l.items = append([]models.Ticket{ev.Ticket.Clone()}, l.items...)
}

// Mutate applies an optimistic local rewrite and returns the pre-image for
// a possible Revert. ok is false when the id is not in the projection.
func (l *List) Mutate(id string, apply func(*models.Ticket)) (*models.Ticket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return nil, false
	}
	prev := l.items[i].Clone()
	apply(&l.items[i])
	return &prev, true
}

// Revert restores a pre-image captured by Mutate after a failed write.
func (l *List) Revert(prev models.Ticket) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.index(prev.ID); i >= 0 {
		l.items[i] = prev.Clone()
		return
	}
	l.items = append([]models.Ticket{prev.Clone()}, l.items...)
}

func (l *List) Snapshot() []models.Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Ticket, 0, len(l.items))
	for _, t := range l.items {
		out = append(out, t.Clone())
	}
	return out
}

func (l *List) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

func (l *List) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *List) index(id string) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *List) remove(id string) {
	if i := l.index(id); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
}
