package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/config"
	"github.com/ousidus/ticket-machine/internal/feed"
	"github.com/ousidus/ticket-machine/internal/handlers"
	"github.com/ousidus/ticket-machine/internal/middleware"
	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository/postgres"
	"github.com/ousidus/ticket-machine/internal/service"
	"github.com/ousidus/ticket-machine/internal/storage"
	"github.com/ousidus/ticket-machine/internal/view"
)

// Deps carries the long-lived pieces main owns: the feed listener and
// board projection outlive any one request, and the services hold the
// projection registrations.
type Deps struct {
	Pool    *pgxpool.Pool
	Feed    *feed.Listener
	Board   *view.Board
	Store   *storage.Disk
	Tickets *service.TicketService
	Auth    *service.AuthService
	Repos   postgres.Repos
}

func New(log zerolog.Logger, cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(200, time.Minute))
	r.Use(middleware.WithAuth(log, cfg.SessionSecret, d.Tickets))

	r.Get("/healthz", handlers.NewHealthHTTP(d.Pool).Check())
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/attachments/*", http.StripPrefix("/attachments/",
		http.FileServer(http.Dir(d.Store.Root()))))

	th := handlers.NewTicketHTTP(d.Tickets)
	ah := handlers.NewAuthHTTP(d.Auth, d.Repos.Users, d.Tickets)
	bh := handlers.NewBoardHTTP(d.Board)
	eh := handlers.NewEventsHTTP(d.Feed, d.Repos.Tickets, log)
	uh := handlers.NewUserHTTP(d.Tickets, d.Repos.Users, d.Repos.Roles, log)
	rh := handlers.NewReportHTTP(d.Repos.Tickets, log)
	at := handlers.NewAttachmentHTTP(d.Tickets, log)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", ah.Register())
		r.Post("/login", ah.Login())
		r.Post("/logout", ah.Logout())
		r.With(middleware.RequireAuth).Get("/me", ah.Me())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		triage := middleware.RequireRoles(models.RoleReviewer, models.RoleAdmin)

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", th.List())
			r.Post("/", th.Create())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", th.Get())
				r.With(triage).Patch("/", th.Update())
				r.With(triage).Post("/status", th.ChangeStatus())
				r.With(triage).Post("/assignee", th.Assign())
				r.With(triage).Post("/move", th.Move())
				r.Get("/comments", th.ListComments())
				r.Post("/comments", th.AddComment())
			})
		})

		r.Route("/board", func(r chi.Router) {
			r.Use(triage)
			r.Get("/", bh.Get())
			r.Post("/refresh", bh.Refresh())
		})

		r.Get("/events", eh.Stream())

		r.Route("/users", func(r chi.Router) {
			r.With(triage).Get("/", uh.List())
			r.With(middleware.RequireSelfOrRoles(models.RoleAdmin)).Get("/{id}", uh.Get())
			r.With(middleware.RequireRoles(models.RoleAdmin)).Put("/{id}/role", uh.SetRole())
		})

		r.With(triage).Get("/reports/summary", rh.Summary())

		r.Post("/attachments", at.Upload())
	})

	return r
}
