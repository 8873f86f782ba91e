package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prevozkop/backend/api"
	"github.com/prevozkop/backend/database"
	"github.com/prevozkop/backend/metrics"
	"github.com/prevozkop/backend/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// prevozkop serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg := loadConfig()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	currentDB := database.New(db)
	defer currentDB.Close()

	if cfg.AutoMigrate {
		log.Info().Msg("AUTO_MIGRATE enabled, migrating schema...")
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	sessions, closeSessions, err := newSessionManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	projects, products, err := storage.NewStores(ctx, cfg.Uploads)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	server := api.NewServer(cfg, api.Dependencies{
		Database: currentDB,
		Sessions: sessions,
		Projects: projects,
		Products: products,
		Notifier: notifier,
		Metrics:  metrics.New(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		server.ShutdownGracefully(shutdownTimeout)
		return nil
	})
	return g.Wait()
}
