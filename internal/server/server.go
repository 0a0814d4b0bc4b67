// Package server exposes a running reminder engine over HTTP.
//
// Routes:
//
//	GET  /healthz     liveness and loop state
//	GET  /reminders   pending reminders, ordered by trigger time
//	POST /reminders   validate, persist and schedule a reminder (413 over 64 KB)
//	POST /refresh     reload the live set from the store
//	GET  /metrics     Prometheus exposition (when a gatherer is configured)
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/balanza/internal/reminder"
)

// maxRequestBodySize is the maximum allowed request body size (64 KB).
const maxRequestBodySize = 64 << 10

// Scheduler is the engine surface served over HTTP. Satisfied by *engine.Engine.
type Scheduler interface {
	OwnerID() int64
	Running() bool
	AddReminder(ctx context.Context, r *reminder.Reminder) error
	GetAllReminders(ctx context.Context) []reminder.Reminder
	RefreshData(ctx context.Context) error
}

// Config holds HTTP server configuration.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server wraps an http.Server around the router.
type Server struct {
	cfg    Config
	srv    *http.Server
	logger *slog.Logger
}

// NewRouter builds the chi router. A nil gatherer disables /metrics.
func NewRouter(s Scheduler, gatherer prometheus.Gatherer, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{scheduler: s, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", h.health)
	r.Get("/reminders", h.listReminders)
	r.With(LimitBody).Post("/reminders", h.addReminder)
	r.Post("/refresh", h.refresh)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// New creates a Server for s.
func New(cfg Config, s Scheduler, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(s, gatherer, logger),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown error", "error", err)
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
