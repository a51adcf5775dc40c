package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ousidus/ticket-machine/internal/config"
	"github.com/ousidus/ticket-machine/internal/database"
	"github.com/ousidus/ticket-machine/internal/feed"
	"github.com/ousidus/ticket-machine/internal/repository/postgres"
	"github.com/ousidus/ticket-machine/internal/router"
	"github.com/ousidus/ticket-machine/internal/service"
	"github.com/ousidus/ticket-machine/internal/storage"
	"github.com/ousidus/ticket-machine/internal/view"
	"github.com/ousidus/ticket-machine/pkg/logger"
)

func main() {
	// config + logger
	cfg := config.Load()
	l := logger.New(cfg.Env)

	// db
	if err := database.Migrate(cfg.DBURL); err != nil {
		l.Fatal().Err(err).Msg("migrations failed")
	}
	pool, err := database.Open(context.Background(), cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()

	repos := postgres.NewRepos(pool)

	// change feed: one LISTEN connection shared by the board and every
	// SSE client
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := feed.NewListener(cfg.DBURL, l)
	go func() {
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			l.Error().Err(err).Msg("change feed stopped")
		}
	}()

	// board projection, fed by the change feed
	board := view.NewBoard(repos.Tickets, l)
	if err := board.Load(context.Background()); err != nil {
		// non-fatal: the board serves its error state until a refresh
		// or the next feed event gets it healthy
		l.Error().Err(err).Msg("initial board load failed")
	}
	boardSub := listener.Subscribe(board.Apply)
	defer boardSub.Unsubscribe()

	// attachments
	store := storage.NewDisk(cfg.AttachmentDir, cfg.PublicBaseURL, l)

	// services
	tickets := service.NewTicketService(repos.Tickets, repos.Comments, repos.Users, repos.Roles, store, l)
	tickets.RegisterProjection(board)
	auth := service.NewAuthService(repos.Users, repos.Roles, cfg.SessionSecret, l)

	// http
	r := router.New(l, cfg, router.Deps{
		Pool:    pool,
		Feed:    listener,
		Board:   board,
		Store:   store,
		Tickets: tickets,
		Auth:    auth,
		Repos:   repos,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // SSE connections stay open
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	l.Info().Msg("shutdown complete")
}
