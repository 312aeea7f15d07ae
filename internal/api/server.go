// Package api exposes the enrichment pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/phone-insight/internal/model"
	"github.com/sells-group/phone-insight/internal/resilience"
	"github.com/sells-group/phone-insight/internal/store"
)

// maxBodyBytes bounds the enrich request body.
const maxBodyBytes = 1 << 20

// Enricher runs the enrichment pipeline for one phone number.
type Enricher interface {
	Run(ctx context.Context, phone string) *model.CombinedResult
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	enricher Enricher
	store    store.Store
	guards   *resilience.Guards
	timeout  time.Duration
	origins  []string
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the run inspection routes and the store health check.
func WithStore(st store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithGuards reports circuit breaker states on /health.
func WithGuards(g *resilience.Guards) Option {
	return func(s *Server) { s.guards = g }
}

// WithTimeout bounds each request. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithAllowedOrigins sets the CORS allow list.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// NewServer creates a Server.
func NewServer(enricher Enricher, opts ...Option) *Server {
	s := &Server{
		enricher: enricher,
		origins:  []string{"*"},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverJSON)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/enrich", s.handleEnrich)
		r.Get("/enrich", s.handleEnrichInfo)

		if s.store != nil {
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{id}", s.handleGetRun)
		}
	})

	return r
}
