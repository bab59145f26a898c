package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/amaumene/focusflow/internal/api"
	"github.com/amaumene/focusflow/internal/config"
	"github.com/amaumene/focusflow/internal/controllers"
	"github.com/amaumene/focusflow/internal/history"
	"github.com/amaumene/focusflow/internal/scheduler"
	"github.com/amaumene/focusflow/internal/services/gemini"
	"github.com/amaumene/focusflow/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting FocusFlow")
	logger.WithField("config_dir", filepath.Dir(cfg.HistoryFile)).Info("Configuration loaded")

	// 3. Initialize durable storage and hydrate history
	storage, err := history.NewBoltStorage(cfg.HistoryFile)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer storage.Close()

	store := history.NewStore(storage, logger)
	if err := store.Load(); err != nil {
		// A corrupt history file should not brick the app; start
		// empty and let the next mutation overwrite it.
		logger.WithError(err).Warn("Failed to load history, starting empty")
	}
	logger.Info("History store initialized")

	// 4. Initialize Gemini client
	if cfg.GeminiAPIKey == "" {
		logger.Warn("No GEMINI_API_KEY set, study-aid generation will be unavailable")
	}
	geminiClient := gemini.NewClient(cfg, logger)
	logger.Info("Gemini client initialized")

	// 5. Initialize controllers
	sessionCtrl := controllers.NewSessionController(store, logger)
	enrichCtrl := controllers.NewEnrichmentCoordinator(sessionCtrl, geminiClient, logger)
	logger.Info("Controllers initialized")

	// 6. Initialize scheduler
	sched := scheduler.NewScheduler(store, cfg.BackupDir, cfg.BackupSchedule, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 7. Initialize HTTP server
	server := api.NewServer(cfg, store, sessionCtrl, enrichCtrl, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 8. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("FocusFlow is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("FocusFlow stopped")
	return nil
}
