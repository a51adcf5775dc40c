package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/utils"
)

type reportCounters interface {
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	CountClosedSince(ctx context.Context, since time.Time) (int, error)
	CountOpenByPriority(ctx context.Context) (map[models.Priority]int, error)
}

type ReportHTTP struct {
	counters reportCounters
	log      zerolog.Logger
}

func NewReportHTTP(counters reportCounters, log zerolog.Logger) *ReportHTTP {
	return &ReportHTTP{counters: counters, log: log}
}

type reportSummary struct {
	ByStatus       map[models.Status]int   `json:"byStatus"`
	ClosedLastWeek int                     `json:"closedLastWeek"`
	OpenByPriority map[models.Priority]int `json:"openByPriority"`
}

func (h *ReportHTTP) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		byStatus, err := h.counters.CountByStatus(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		closed, err := h.counters.CountClosedSince(r.Context(), time.Now().AddDate(0, 0, -7))
		if err != nil {
			respondError(w, err)
			return
		}
		byPriority, err := h.counters.CountOpenByPriority(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}

		// Every bucket shows up in the payload even when its count is
		// zero so chart axes stay stable.
		for _, s := range models.Statuses() {
			if _, ok := byStatus[s]; !ok {
				byStatus[s] = 0
			}
		}
		for _, p := range models.Priorities() {
			if _, ok := byPriority[p]; !ok {
				byPriority[p] = 0
			}
		}

		utils.JSON(w, http.StatusOK, reportSummary{
			ByStatus:       byStatus,
			ClosedLastWeek: closed,
			OpenByPriority: byPriority,
		})
	}
}
