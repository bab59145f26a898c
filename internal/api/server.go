package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/api/handlers"
	"github.com/amaumene/focusflow/internal/api/middleware"
	"github.com/amaumene/focusflow/internal/config"
	"github.com/amaumene/focusflow/internal/controllers"
	"github.com/amaumene/focusflow/internal/history"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	store    *history.Store
	sessions *controllers.SessionController
	enrich   *controllers.EnrichmentCoordinator
	logger   *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, store *history.Store, sessions *controllers.SessionController, enrich *controllers.EnrichmentCoordinator, logger *logrus.Logger) *Server {
	s := &Server{
		store:    store,
		sessions: sessions,
		enrich:   enrich,
		logger:   logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	healthHandler := handlers.NewHealthHandler(s.store, s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	statusHandler := handlers.NewStatusHandler(s.store, s.logger)
	mux.HandleFunc("/status", statusHandler.ServeHTTP)

	sessionHandler := handlers.NewSessionHandler(s.sessions, s.enrich, s.logger)
	mux.HandleFunc("/api/session", sessionHandler.ServeHTTP)
	mux.HandleFunc("/api/session/generate", sessionHandler.Generate)
	mux.HandleFunc("/api/session/promote", sessionHandler.Promote)

	historyHandler := handlers.NewHistoryHandler(s.store, s.sessions, s.logger)
	mux.HandleFunc("/api/history", historyHandler.List)
	mux.HandleFunc("/api/history/select", historyHandler.Select)
	mux.HandleFunc("/api/history/export", historyHandler.Export)
	mux.HandleFunc("/api/history/import", historyHandler.Import)
	mux.HandleFunc("/api/history/", historyHandler.Item)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
