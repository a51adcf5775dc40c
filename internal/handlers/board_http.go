package handlers

import (
	"context"
	"net/http"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/utils"
)

// BoardView is the presentation contract of the grouped projection:
// a snapshot, the loading/error flags, and an explicit retry.
type BoardView interface {
	Snapshot() map[models.Status][]models.Ticket
	Loading() bool
	Err() error
	Refresh(ctx context.Context) error
}

type BoardHTTP struct {
	board BoardView
}

func NewBoardHTTP(board BoardView) *BoardHTTP { return &BoardHTTP{board: board} }

// Get returns the kanban columns in canonical status order.
func (h *BoardHTTP) Get() http.HandlerFunc {
	type column struct {
		Status  models.Status   `json:"status"`
		Label   string          `json:"label"`
		Color   string          `json:"color"`
		Tickets []models.Ticket `json:"tickets"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.board.Err(); err != nil {
			// load failed earlier; the client shows an error card with a
			// retry that hits POST /api/board/refresh
			utils.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"error":     err.Error(),
				"retryable": true,
			})
			return
		}

		snap := h.board.Snapshot()
		cols := make([]column, 0, len(snap))
		for _, s := range models.Statuses() {
			cols = append(cols, column{
				Status:  s,
				Label:   s.Label(),
				Color:   s.Color(),
				Tickets: snap[s],
			})
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"columns": cols,
			"loading": h.board.Loading(),
		})
	}
}

// Refresh is the manual retry for a failed load.
func (h *BoardHTTP) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.board.Refresh(r.Context()); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
