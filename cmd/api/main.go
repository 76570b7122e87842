package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/omarsaleem/taqyeem/internal/analysis"
	"github.com/omarsaleem/taqyeem/internal/api"
	"github.com/omarsaleem/taqyeem/internal/config"
	"github.com/omarsaleem/taqyeem/internal/db"
	"github.com/omarsaleem/taqyeem/internal/inference"
	"github.com/omarsaleem/taqyeem/internal/lang"
	"github.com/omarsaleem/taqyeem/internal/notify"
	"github.com/omarsaleem/taqyeem/internal/pipeline"
)

func main() {
	// A .env file is optional; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Store.URI, cfg.Store.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.Migrate(pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}
	queries := db.New(pool)

	res, err := lang.Load(cfg.Lang.CategoryLabelsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load language resources")
	}

	adapter := inference.New(cfg, logger)

	var push notify.PushSender
	if cfg.Push.CredentialsJSON != "" {
		fcm, err := notify.NewFCMClient(ctx, cfg.Push.CredentialsJSON)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init push client")
		}
		push = fcm
	}
	var telegram *notify.TelegramClient
	var chat notify.ChatSender
	if cfg.Telegram.BotToken != "" {
		telegram = notify.NewTelegramClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken)
		chat = telegram
	}
	notifier := notify.New(push, chat, res, logger)

	pipe := pipeline.New(
		cfg,
		queries,
		notifier,
		analysis.NewQualityScorer(cfg.Quality.Weights),
		analysis.NewToxicityClassifier(adapter, res, logger),
		analysis.NewSentimentClassifier(adapter, logger),
		analysis.NewRelevancyClassifier(adapter, res, logger),
		analysis.NewEnricher(adapter, res, logger),
		logger,
	)

	server := api.NewServer(cfg, queries, pipe, telegram, res, logger)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}()

	logger.Info().Str("port", cfg.Server.Port).Msg("starting server")
	if err := server.Start(ctx); err != nil {
		logger.Info().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stderr)
	if cfg.Log.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return out.Level(level).With().Timestamp().Logger()
}
