package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizroom/internal/app"
	"quizroom/internal/config"
	"quizroom/internal/store"
	httpTransport "quizroom/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting trivia room server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db", cfg.Database.Driver,
	)

	// Pick the question source
	var (
		source   app.QuestionSource
		recorder app.ScoreRecorder
		bank     httpTransport.QuestionBank
	)

	if cfg.Database.Driver != "" {
		db, err := openStore(cfg, logger)
		if err != nil {
			logger.Error("failed to open question bank", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		source, recorder, bank = db, db, db
	} else {
		logger.Info("no database configured, using built-in questions")
		source = app.NewDefaultDeckSource(time.Now().UnixNano())
	}

	// Create room registry
	broadcaster := app.NewConnectionBroadcaster(logger)
	registry := app.NewRegistry(cfg.RegistryConfig(), source, recorder, broadcaster, logger)
	defer registry.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, registry, broadcaster, bank, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// openStore connects the question bank and seeds it when a file is configured
func openStore(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	db, err := store.Open(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.QuestionsFile != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := db.SeedFromFile(ctx, cfg.Database.QuestionsFile); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
