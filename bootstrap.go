package main

import (
	"context"
	"fmt"

	"github.com/prevozkop/backend/config"
	"github.com/prevozkop/backend/database"
	"github.com/prevozkop/backend/logger"
	"github.com/prevozkop/backend/services"
	"github.com/prevozkop/backend/session"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// loadConfig reads the environment and configures the global logger.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	log.Info().Str("driver", cfg.Database.Driver).Msg("Connecting to database...")
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// newSessionManager keeps sessions in Redis when REDIS_URL is set and in
// process memory otherwise. The returned func releases the Redis client.
func newSessionManager(ctx context.Context, cfg *config.Config) (*session.Manager, func(), error) {
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
		return session.NewManager(session.NewMemoryStore(cfg.Session.TTL), cfg.Session), func() {}, nil
	}

	client, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	return session.NewManager(session.NewRedisStore(client, cfg.Session.TTL), cfg.Session), closeFn, nil
}

func newNotifier(cfg *config.Config) (*services.Notifier, error) {
	mailer, err := services.NewMailer(cfg.Mail)
	if err != nil {
		return nil, err
	}
	if cfg.Mail.To == "" {
		log.Warn().Msg("MAIL_TO not set, order notifications are disabled")
	}
	return services.NewNotifier(mailer, cfg.Mail), nil
}
