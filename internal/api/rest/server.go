package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/config"
)

// Server is the HTTP entry point for record intake.
type Server struct {
	config     *config.Config
	httpServer *http.Server
	handler    http.Handler
	health     *HealthService
}

// NewServer wires the intake handler, health service, and middleware
// chain into an http.Server.
func NewServer(cfg *config.Config, processor Processor, health *HealthService) *Server {
	s := &Server{
		config: cfg,
		health: health,
	}

	s.handler = s.setupRoutes(processor)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes(processor Processor) http.Handler {
	mux := http.NewServeMux()

	handler := NewHandler(processor)
	mux.HandleFunc("POST /api/v1/records", handler.handleProcessRecord)

	mux.HandleFunc("GET /health", s.health.LivenessHandler())
	mux.HandleFunc("GET /ready", s.health.ReadinessHandler())
	mux.Handle("GET /metrics", MetricsHandler())

	middlewares := []Middleware{
		requestIDMiddleware(),
		loggingMiddleware(),
		metricsMiddleware(),
		recoveryMiddleware(),
		rateLimitMiddleware(s.config.Server.RateLimit.RequestsPerSecond, s.config.Server.RateLimit.BurstSize),
		timeoutMiddleware(s.config.Server.RequestTimeout),
	}

	return applyMiddleware(mux, middlewares...)
}

// applyMiddleware wraps the handler so the first middleware in the
// list runs outermost.
func applyMiddleware(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Handler exposes the fully wired chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the server until it fails or the process receives a
// shutdown signal.
func (s *Server) Start() error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
		return s.Shutdown()
	}
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("http server stopped")
	return nil
}
