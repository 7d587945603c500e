// Package server provides the HTTP server and routing for the advisor.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/metrics"
	snapshothandlers "github.com/aristath/advisor/internal/modules/snapshots/handlers"
)

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	Port        int
	DevMode     bool
	CORSOrigins []string

	Databases []*database.DB // Checked by /api/health
	Runner    WorkflowRunner
	Snapshots snapshothandlers.SnapshotStore // Optional
	Analysis  AnalysisFiles                  // Optional
	Events    *events.Bus                    // Optional, enables the progress stream
	Metrics   *metrics.Registry              // Optional
	Breaker   BreakerReporter                // Optional, reported by /api/health
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config

	started time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		cfg:     cfg,
		started: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !s.cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", s.cfg.Metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		system := NewSystemHandlers(s.cfg.Databases, s.cfg.Breaker, s.started, s.log)
		r.Get("/health", system.HandleHealth)

		// Long-lived websocket; must not sit behind the request timeout
		if s.cfg.Events != nil {
			stream := NewWorkflowStreamHandler(s.cfg.Events, s.cfg.Runner, s.cfg.CORSOrigins, s.log)
			r.Get("/workflows/{id}/stream", stream.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			if s.cfg.Runner != nil {
				NewWorkflowHandlers(s.cfg.Runner, s.log).RegisterRoutes(r)
			}
			if s.cfg.Analysis != nil {
				NewAnalysisHandlers(s.cfg.Analysis, s.log).RegisterRoutes(r)
			}
			if s.cfg.Snapshots != nil {
				snapshothandlers.NewHandler(s.cfg.Snapshots, s.log).RegisterRoutes(r)
			}
		})
	})
}

// Router exposes the configured handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
