package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ousidus/ticket-machine/internal/feed"
	"github.com/ousidus/ticket-machine/internal/models"
)

func tick(id string, status models.Status, updated time.Time) models.Ticket {
	return models.Ticket{
		ID:        id,
		Title:     "ticket " + id,
		Status:    status,
		Priority:  models.PriorityMedium,
		UserID:    "u1",
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func boardIDs(snap map[models.Status][]models.Ticket, s models.Status) []string {
	var ids []string
	for _, t := range snap[s] {
		ids = append(ids, t.ID)
	}
	return ids
}

// countAcrossBuckets returns how many buckets hold the given id.
func countAcrossBuckets(snap map[models.Status][]models.Ticket, id string) int {
	n := 0
	for _, bucket := range snap {
		for _, t := range bucket {
			if t.ID == id {
				n++
			}
		}
	}
	return n
}

func TestBoardLoadGroupsByStatus(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{tickets: []models.Ticket{
		tick("a", models.StatusOpen, now),
		tick("b", models.StatusClosed, now),
	}}
	b := NewBoard(repo, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	snap := b.Snapshot()
	assert.Equal(t, []string{"a"}, boardIDs(snap, models.StatusOpen))
	assert.Empty(t, snap[models.StatusInProgress])
	assert.Equal(t, []string{"b"}, boardIDs(snap, models.StatusClosed))
}

func TestBoardUpdateEventMovesBetweenBuckets(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{tickets: []models.Ticket{tick("a", models.StatusOpen, now)}}
	b := NewBoard(repo, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	b.Apply(feed.Event{Op: feed.OpUpdate, Ticket: tick("a", models.StatusClosed, now.Add(time.Second))})

	snap := b.Snapshot()
	assert.Empty(t, snap[models.StatusOpen])
	assert.Equal(t, []string{"a"}, boardIDs(snap, models.StatusClosed))
}

func TestBoardDeleteUnknownIDIsNoOp(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{tickets: []models.Ticket{tick("a", models.StatusOpen, now)}}
	b := NewBoard(repo, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	b.Apply(feed.Event{Op: feed.OpDelete, Ticket: models.Ticket{ID: "ghost"}})

	assert.Equal(t, []string{"a"}, boardIDs(b.Snapshot(), models.StatusOpen))
}

func TestBoardDuplicateInsertIsAppliedAsUpdate(t *testing.T) {
	now := time.Now()
	b := NewBoard(&fakeRepo{}, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	b.Apply(feed.Event{Op: feed.OpInsert, Ticket: tick("a", models.StatusOpen, now)})
	b.Apply(feed.Event{Op: feed.OpInsert, Ticket: tick("a", models.StatusInProgress, now.Add(time.Second))})

	snap := b.Snapshot()
	assert.Equal(t, 1, countAcrossBuckets(snap, "a"))
	assert.Equal(t, []string{"a"}, boardIDs(snap, models.StatusInProgress))
}

func TestBoardStaleEventDropped(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{tickets: []models.Ticket{tick("a", models.StatusInProgress, now)}}
	b := NewBoard(repo, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	// an event carrying an older updated_at lost the race
	b.Apply(feed.Event{Op: feed.OpUpdate, Ticket: tick("a", models.StatusOpen, now.Add(-time.Minute))})

	snap := b.Snapshot()
	assert.Equal(t, []string{"a"}, boardIDs(snap, models.StatusInProgress))
	assert.Empty(t, snap[models.StatusOpen])
}

func TestBoardEventSequenceKeepsOneBucketPerID(t *testing.T) {
	base := time.Now()
	b := NewBoard(&fakeRepo{}, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	seq := []models.Status{
		models.StatusOpen, models.StatusClosed, models.StatusInProgress,
		models.StatusInProgress, models.StatusOpen, models.StatusClosed,
	}
	b.Apply(feed.Event{Op: feed.OpInsert, Ticket: tick("a", seq[0], base)})
	for i, s := range seq[1:] {
		b.Apply(feed.Event{Op: feed.OpUpdate, Ticket: tick("a", s, base.Add(time.Duration(i+1)*time.Second))})
	}

	snap := b.Snapshot()
	assert.Equal(t, 1, countAcrossBuckets(snap, "a"))
	assert.Equal(t, []string{"a"}, boardIDs(snap, models.StatusClosed))
}

func TestBoardInsertGoesToColumnHead(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{tickets: []models.Ticket{tick("old", models.StatusOpen, now)}}
	b := NewBoard(repo, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	b.Apply(feed.Event{Op: feed.OpInsert, Ticket: tick("new", models.StatusOpen, now.Add(time.Second))})

	assert.Equal(t, []string{"new", "old"}, boardIDs(b.Snapshot(), models.StatusOpen))
}

func TestBoardMutateRelocatesAndRevertRestores(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{tickets: []models.Ticket{tick("a", models.StatusOpen, now)}}
	b := NewBoard(repo, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	prev, ok := b.Mutate("a", func(t *models.Ticket) {
		t.Status = models.StatusClosed
		t.UpdatedAt = now.Add(time.Second)
	})
	require.True(t, ok)
	require.NotNil(t, prev)
	assert.Equal(t, models.StatusOpen, prev.Status)
	assert.Equal(t, []string{"a"}, boardIDs(b.Snapshot(), models.StatusClosed))

	b.Revert(*prev)

	snap := b.Snapshot()
	assert.Equal(t, []string{"a"}, boardIDs(snap, models.StatusOpen))
	assert.Empty(t, snap[models.StatusClosed])
	assert.Equal(t, 1, countAcrossBuckets(snap, "a"))
}

func TestBoardMutateUnknownID(t *testing.T) {
	b := NewBoard(&fakeRepo{}, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	prev, ok := b.Mutate("ghost", func(t *models.Ticket) { t.Status = models.StatusClosed })
	assert.False(t, ok)
	assert.Nil(t, prev)
}

func TestBoardLoadFailureKeepsSnapshotAndSetsErr(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{tickets: []models.Ticket{tick("a", models.StatusOpen, now)}}
	b := NewBoard(repo, zerolog.Nop())
	require.NoError(t, b.Load(context.Background()))

	repo.err = errors.New("backend down")
	require.Error(t, b.Load(context.Background()))
	assert.Error(t, b.Err())
	assert.Equal(t, []string{"a"}, boardIDs(b.Snapshot(), models.StatusOpen))

	// explicit retry succeeds and clears the error state
	repo.err = nil
	require.NoError(t, b.Refresh(context.Background()))
	assert.NoError(t, b.Err())
}
