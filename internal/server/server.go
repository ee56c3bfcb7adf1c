// Package server exposes the auditor over HTTP.
//
// The API is versioned under /api/v1. Audits run synchronously: POST
// /api/v1/audits resolves the requested package and returns the export
// document. Concurrent audits are capped with a weighted semaphore;
// requests beyond the cap receive 429. When an archive store is
// configured, completed audits are saved best-effort and can be listed
// and reopened through GET /api/v1/audits.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/pipscope/pkg/archive"
	"github.com/matzehuels/pipscope/pkg/audit"
)

const defaultMaxConcurrent = 4

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// MaxConcurrent caps simultaneous audit runs. Zero or negative
	// falls back to a small default.
	MaxConcurrent int64

	// Source fetches package metadata.
	Source audit.Source

	// Archive persists completed audits. Optional; when nil the
	// listing endpoints report the archive as unconfigured.
	Archive archive.Store

	// Logger receives request and lifecycle logs. Defaults to the
	// package-level charm logger.
	Logger *log.Logger
}

// Server is the HTTP front end of the auditor.
type Server struct {
	addr    string
	source  audit.Source
	archive archive.Store
	logger  *log.Logger
	sem     *semaphore.Weighted
	router  chi.Router
}

// New assembles the router and middleware for the given configuration.
func New(cfg Config) *Server {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		addr:    cfg.Addr,
		source:  cfg.Source,
		archive: cfg.Archive,
		logger:  cfg.Logger,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/audits", s.handleAudit)
		r.Get("/audits", s.handleList)
		r.Get("/audits/{runID}", s.handleGetAudit)
	})
	s.router = r

	return s
}

// Handler returns the assembled router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the context ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}
