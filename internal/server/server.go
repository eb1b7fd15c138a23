// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/metrics"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

const ServiceName = "invoice-extractor-api"

// DocumentRunner is satisfied by *pipeline.DocumentRunner.
type DocumentRunner interface {
	Run(ctx context.Context, path, filename, docType string) (pipeline.Document, error)
}

type Config struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
	CORSOrigins    []string
	BatchWorkers   int
	ShutdownGrace  time.Duration
}

func (c *Config) normalize() {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = constants.MaxUploadBytesDefault
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 2 * time.Minute
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = 4
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 15 * time.Second
	}
}

// Deps are the collaborators the handlers use. Store, Exporter, Templates and
// Metrics are optional.
type Deps struct {
	Runner    DocumentRunner
	Store     repository.Store
	Exporter  *export.Service
	Templates []string
	Metrics   *metrics.Metrics
}

type Server struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	router chi.Router
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.normalize()
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
	}
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/api/health", s.handleHealth)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Use(s.limitBody)

		r.Post("/api/extract-invoice", s.handleExtract)
		r.Post("/api/batch-extract", s.handleBatchExtract)

		r.Get("/api/templates", s.handleTemplates)
		r.Get("/api/extractions", s.handleListExtractions)
		r.Get("/api/extractions/{id}", s.handleGetExtraction)
		r.Get("/api/export/xlsx", s.handleExportXLSX)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http.listen", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http.shutdown.start")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http.shutdown.done")
	return nil
}
