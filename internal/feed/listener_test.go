package feed

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ousidus/ticket-machine/internal/models"
)

func TestDecodeEvent(t *testing.T) {
	payload := []byte(`{
		"op": "update",
		"ticket": {
			"id": "11111111-1111-1111-1111-111111111111",
			"title": "printer on fire",
			"description": null,
			"status": "in_progress",
			"priority": "high",
			"user_id": "22222222-2222-2222-2222-222222222222",
			"assigned_to": "33333333-3333-3333-3333-333333333333",
			"attachments": ["http://x/a.png"],
			"tags": ["hardware"],
			"created_at": "2026-08-28T10:00:00+00:00",
			"updated_at": "2026-08-28T10:05:00+00:00"
		}
	}`)

	ev, err := decodeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, OpUpdate, ev.Op)
	assert.Equal(t, "printer on fire", ev.Ticket.Title)
	assert.Equal(t, "", ev.Ticket.Description)
	assert.Equal(t, models.StatusInProgress, ev.Ticket.Status)
	require.NotNil(t, ev.Ticket.AssignedTo)
	assert.Equal(t, "33333333-3333-3333-3333-333333333333", *ev.Ticket.AssignedTo)
	assert.Equal(t, []string{"hardware"}, ev.Ticket.Tags)
}

func TestDecodeEvent_BadJSON(t *testing.T) {
	_, err := decodeEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestDispatchReachesAllSubscribers(t *testing.T) {
	l := NewListener("", zerolog.Nop())

	var a, b []Event
	subA := l.Subscribe(func(ev Event) { a = append(a, ev) })
	subB := l.Subscribe(func(ev Event) { b = append(b, ev) })
	defer subA.Unsubscribe()
	defer subB.Unsubscribe()

	l.dispatch(Event{Op: OpInsert, Ticket: models.Ticket{ID: "t1"}})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "t1", a[0].Ticket.ID)
}

func TestNoDeliveryAfterUnsubscribe(t *testing.T) {
	l := NewListener("", zerolog.Nop())

	var got []Event
	sub := l.Subscribe(func(ev Event) { got = append(got, ev) })

	l.dispatch(Event{Op: OpInsert, Ticket: models.Ticket{ID: "t1"}})
	sub.Unsubscribe()
	l.dispatch(Event{Op: OpUpdate, Ticket: models.Ticket{ID: "t1"}})

	require.Len(t, got, 1)
	assert.Equal(t, OpInsert, got[0].Op)
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	l := NewListener("", zerolog.Nop())
	sub := l.Subscribe(func(Event) {})
	sub.Unsubscribe()
	sub.Unsubscribe()
	l.dispatch(Event{Op: OpDelete, Ticket: models.Ticket{ID: "t1"}})
}
