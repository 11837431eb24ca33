package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/petstore/pkg/events"
	"github.com/platinummonkey/petstore/pkg/httputil"
	"github.com/platinummonkey/petstore/pkg/observability"
	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/platinummonkey/petstore/pkg/swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultMaxBodyBytes caps request bodies; a pet is a few dozen bytes
const DefaultMaxBodyBytes int64 = 1 << 20

// Server represents our API server
type Server struct {
	router  *mux.Router
	handler http.Handler

	repo         pets.Repository
	hub          *events.Hub
	logger       *observability.Logger
	metrics      *observability.Metrics
	corsOrigins  []string
	maxBodyBytes int64
	tracing      bool
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger attached to every request context
func WithLogger(logger *observability.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics records Prometheus HTTP metrics per route
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithEvents publishes change events to the hub and serves its feed
func WithEvents(hub *events.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

// WithCORSOrigins enables CORS for the given origins
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithTracing wraps the router in an OpenTelemetry span per request
func WithTracing(enabled bool) Option {
	return func(s *Server) { s.tracing = enabled }
}

// NewServer creates a new API server over the repository
func NewServer(repo pets.Repository, opts ...Option) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		repo:         repo,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = observability.NewNopLogger()
	}

	s.setupRoutes()
	s.handler = s.buildHandler()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	s.router.HandleFunc("/healthcheck", healthcheck).Methods("GET")

	// The feed must be matched before /api/v1/pet/{id}
	var publisher events.Publisher = events.NopPublisher{}
	if s.hub != nil {
		s.router.Handle("/api/v1/pet/events", s.hub).Methods("GET")
		publisher = s.hub
	}

	NewPetHandlers(s.repo, publisher).RegisterRoutes(s.router)
	swagger.NewSwaggerHandlers().RegisterRoutes(s.router)
}

func (s *Server) buildHandler() http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware(s.logger),
		httputil.LoggingMiddleware,
		httputil.RecoveryMiddleware,
	}
	if len(s.corsOrigins) > 0 {
		middlewares = append(middlewares, httputil.CORSMiddleware(s.corsOrigins))
	}
	middlewares = append(middlewares, httputil.MaxBytesMiddleware(s.maxBodyBytes))

	handler := httputil.Chain(middlewares...)(s.router)
	if s.tracing {
		handler = otelhttp.NewHandler(handler, "petstore",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
	return handler
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying router
func (s *Server) Router() *mux.Router {
	return s.router
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}

// healthcheck handles GET /healthcheck
func healthcheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
