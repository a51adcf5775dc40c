package handlers

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ousidus/ticket-machine/internal/utils"
)

type HealthHTTP struct {
	pool *pgxpool.Pool
}

func NewHealthHTTP(pool *pgxpool.Pool) *HealthHTTP {
	return &HealthHTTP{pool: pool}
}

func (h *HealthHTTP) Check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.pool.Ping(r.Context()); err != nil {
			utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
