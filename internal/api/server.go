// Package api serves property profiles over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/property-profile/internal/cache"
	"github.com/sells-group/property-profile/internal/metrics"
	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/profile"
	"github.com/sells-group/property-profile/internal/resilience"
	"github.com/sells-group/property-profile/internal/store"
)

// Builder builds a profile for a query. *profile.Engine implements it.
type Builder interface {
	Build(ctx context.Context, q model.AddressQuery) (*profile.Result, error)
}

// Server holds the handler dependencies.
type Server struct {
	builder        Builder
	store          store.Store
	cache          *cache.ProfileCache
	breakers       *resilience.Breakers
	metrics        *metrics.Metrics
	corsOrigins    []string
	requestTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the stored profile routes.
func WithStore(s store.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithCache reports cache statistics on /health.
func WithCache(c *cache.ProfileCache) Option {
	return func(srv *Server) { srv.cache = c }
}

// WithBreakers reports circuit breaker states on /health.
func WithBreakers(b *resilience.Breakers) Option {
	return func(srv *Server) { srv.breakers = b }
}

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(srv *Server) { srv.corsOrigins = origins }
}

// WithRequestTimeout bounds every request.
func WithRequestTimeout(d time.Duration) Option {
	return func(srv *Server) {
		if d > 0 {
			srv.requestTimeout = d
		}
	}
}

// NewServer creates a Server.
func NewServer(b Builder, opts ...Option) *Server {
	s := &Server{
		builder:        b,
		corsOrigins:    []string{"*"},
		requestTimeout: 45 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestIDHeader)
	r.Use(accessLog(s.metrics))
	r.Use(recoverJSON)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", chimw.RequestIDHeader},
		ExposedHeaders: []string{"X-Cache", chimw.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(s.requestTimeout))
		r.Get("/profile", s.handleProfile)
		r.Get("/profiles", s.handleListProfiles)
		r.Get("/profiles/{id}", s.handleGetProfile)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, CodeInvalidRequest, "method not allowed")
	})
	return r
}
