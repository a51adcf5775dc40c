package view

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/feed"
	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
)

// Board is the grouped projection behind the kanban view: all tickets,
// partitioned into one bucket per status. Every ticket id is in at most
// one bucket at any quiescent point.
type Board struct {
	repo repository.TicketRepository
	log  zerolog.Logger

	mu      sync.Mutex
	buckets map[models.Status][]models.Ticket
	loading bool
	err     error
}

func NewBoard(repo repository.TicketRepository, log zerolog.Logger) *Board {
	return &Board{
		repo:    repo,
		log:     log.With().Str("projection", "board").Logger(),
		buckets: emptyBuckets(),
	}
}

func emptyBuckets() map[models.Status][]models.Ticket {
	b := make(map[models.Status][]models.Ticket, len(models.Statuses()))
	for _, s := range models.Statuses() {
		b[s] = nil
	}
	return b
}

func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	items, err := fetchAll(ctx, b.repo, "")

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	if err != nil {
		b.err = err
		return err
	}
	b.err = nil
	b.buckets = emptyBuckets()
	for _, t := range items {
		if !t.Status.Valid() {
			b.log.Warn().Str("ticket", t.ID).Str("status", string(t.Status)).Msg("dropping ticket with unknown status")
			continue
		}
		b.buckets[t.Status] = append(b.buckets[t.Status], t.Clone())
	}
	return nil
}

func (b *Board) Refresh(ctx context.Context) error { return b.Load(ctx) }

// Apply merges a remote event. Updates remove the old entry wherever it
// is and re-insert by the new status, so a ticket is never in two buckets
// nor missing after an update. An insert for a known id is treated as an
// update; a delete for an unknown id is a no-op.
func (b *Board) Apply(ev feed.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := ev.Ticket.ID
	if ev.Op == feed.OpDelete {
		b.removeAll(id)
		return
	}

	existing, found := b.find(id)
	if found {
		if stale(existing, ev.Ticket) {
			b.log.Debug().Str("ticket", id).Msg("dropping stale remote event")
			return
		}
	}
	if !ev.Ticket.Status.Valid() {
		b.removeAll(id)
		b.log.Warn().Str("ticket", id).Str("status", string(ev.Ticket.Status)).Msg("event with unknown status")
		return
	}

	b.removeAll(id)
	dest := ev.Ticket.Status
	if !found && ev.Op == feed.OpInsert {
		// fresh tickets surface at the top of their column
		b.buckets[dest] = append([]models.Ticket{ev.Ticket.Clone()}, b.buckets[dest]...)
		return
	}
	b.buckets[dest] = append(b.buckets[dest], ev.Ticket.Clone())
}

// Mutate applies an optimistic rewrite, relocating the ticket when the
// mutation changes its status. Returns the pre-image for Revert.
func (b *Board) Mutate(id string, apply func(*models.Ticket)) (*models.Ticket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s, bucket := range b.buckets {
		for i := range bucket {
			if bucket[i].ID != id {
				continue
			}
			prev := bucket[i].Clone()
			t := bucket[i].Clone()
			apply(&t)
			if t.Status == s {
				bucket[i] = t
				return &prev, true
			}
			if !t.Status.Valid() {
				// refuse to relocate into a bucket that does not exist
				return nil, false
			}
			b.buckets[s] = append(bucket[:i], bucket[i+1:]...)
			b.buckets[t.Status] = append(b.buckets[t.Status], t)
			return &prev, true
		}
	}
	return nil, false
}

func (b *Board) Revert(prev models.Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removeAll(prev.ID)
	if prev.Status.Valid() {
		b.buckets[prev.Status] = append(b.buckets[prev.Status], prev.Clone())
	}
}

// Snapshot returns a deep copy with every status bucket present, empty
// or not.
func (b *Board) Snapshot() map[models.Status][]models.Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[models.Status][]models.Ticket, len(b.buckets))
	for _, s := range models.Statuses() {
		bucket := make([]models.Ticket, 0, len(b.buckets[s]))
		for _, t := range b.buckets[s] {
			bucket = append(bucket, t.Clone())
		}
		out[s] = bucket
	}
	return out
}

func (b *Board) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

func (b *Board) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Board) find(id string) (models.Ticket, bool) {
	for _, bucket := range b.buckets {
		for i := range bucket {
			if bucket[i].ID == id {
				return bucket[i], true
			}
		}
	}
	return models.Ticket{}, false
}

func (b *Board) removeAll(id string) {
	for s, bucket := range b.buckets {
		for i := range bucket {
			if bucket[i].ID == id {
				b.buckets[s] = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
	}
}
