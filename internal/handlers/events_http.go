package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/feed"
	"github.com/ousidus/ticket-machine/internal/middleware"
	"github.com/ousidus/ticket-machine/internal/repository"
	"github.com/ousidus/ticket-machine/internal/utils"
	"github.com/ousidus/ticket-machine/internal/view"
)

type EventsHTTP struct {
	feed    *feed.Listener
	tickets repository.TicketRepository
	log     zerolog.Logger
}

func NewEventsHTTP(f *feed.Listener, tickets repository.TicketRepository, log zerolog.Logger) *EventsHTTP {
	return &EventsHTTP{feed: f, tickets: tickets, log: log.With().Str("component", "events").Logger()}
}

// Stream serves GET /api/events as SSE. Each connection owns a flat
// projection scoped to the caller (unscoped for triage roles) plus one
// feed subscription, both torn down when the client goes away.
func (h *EventsHTTP) Stream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fl, ok := w.(http.Flusher)
		if !ok {
			utils.Error(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		owner := ""
		if !middleware.RoleFrom(r.Context()).CanReview() {
			owner = middleware.UserIDFrom(r.Context())
		}

		list := view.NewList(h.tickets, h.log, owner)
		if err := list.Load(r.Context()); err != nil {
			respondError(w, err)
			return
		}

		// Buffered so a stalled client drops events instead of blocking
		// the listener goroutine; the projection itself stays correct.
		ch := make(chan feed.Event, 64)
		sub := h.feed.Subscribe(func(ev feed.Event) {
			select {
			case ch <- ev:
			default:
			}
		})
		defer sub.Unsubscribe()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		writeSSE(w, "snapshot", map[string]any{"tickets": list.Snapshot()})
		fl.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev := <-ch:
				list.Apply(ev)
				if !inScope(owner, ev) {
					continue
				}
				writeSSE(w, string(ev.Op), map[string]any{"ticket": ev.Ticket})
				fl.Flush()
			}
		}
	}
}

func inScope(owner string, ev feed.Event) bool {
	if owner == "" || ev.Op == feed.OpDelete {
		return true
	}
	return ev.Ticket.UserID == owner
}

func writeSSE(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
