package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prevozkop/backend/config"
	"github.com/prevozkop/backend/database"
	"github.com/prevozkop/backend/metrics"
	"github.com/prevozkop/backend/session"
	"github.com/prevozkop/backend/storage"
	"github.com/rs/zerolog/log"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Database database.Database
	Sessions *session.Manager
	Projects *storage.Store
	Products *storage.Store
	Notifier Notifier
	// Metrics may be nil, in which case a private registry is created.
	Metrics *metrics.Metrics
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(cfg *config.Config, deps Dependencies) Server {
	// Bind to 0.0.0.0 for external access
	address := fmt.Sprintf("0.0.0.0:%s", cfg.Port)

	server := &http.Server{
		Addr:         address,
		Handler:      newRouter(cfg, deps),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return Server{server, time.Now()}
}

func newRouter(cfg *config.Config, deps Dependencies) *chi.Mux {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(ColoredHTTPLoggingMiddleware)
	chiRouter.Use(deps.Metrics.Middleware)
	chiRouter.Use(corsMiddleware(cfg.CORSOrigins))

	handlers := initializeHandlers(cfg, deps)
	authMiddleware := newAuthMiddleware(cfg.Debug, cfg.CORSOrigins)

	setupRoutes(chiRouter, cfg, deps, handlers, authMiddleware)

	return chiRouter
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s Server) Start() error {
	log.Info().Msgf("Server started on: %s", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Dur("uptime", time.Since(s.startupTime)).Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
