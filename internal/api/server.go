// Package api provides the HTTP API server and handlers for Pagebound.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageboundapp/pagebound-server/internal/sse"
)

// Options tunes the server's outer surface.
type Options struct {
	CORSOrigins []string

	// AuthRate requests per minute per client IP on /api/v1/auth/*.
	AuthRate  int
	AuthBurst int
}

// DefaultOptions are used by tests and when config leaves fields unset.
func DefaultOptions() Options {
	return Options{
		CORSOrigins: []string{"*"},
		AuthRate:    20,
		AuthBurst:   10,
	}
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services        *Services
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.AuthRate <= 0 {
		opts.AuthRate = DefaultOptions().AuthRate
	}
	if opts.AuthBurst <= 0 {
		opts.AuthBurst = DefaultOptions().AuthBurst
	}

	s := &Server{
		services:        services,
		router:          chi.NewRouter(),
		logger:          logger,
		authRateLimiter: NewRateLimiter(opts.AuthRate, time.Minute, opts.AuthBurst),
	}

	s.setupMiddleware(opts)
	s.api = humachi.New(s.router, newHumaConfig())
	RegisterErrorHandler()
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, e.g. for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

func newHumaConfig() huma.Config {
	cfg := huma.DefaultConfig("Pagebound API", "1.0.0")
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	cfg.Transformers = append(cfg.Transformers, EnvelopeTransformer)
	return cfg
}

// setupMiddleware configures the middleware stack. chi requires all
// middleware before the first route.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(RateLimitMiddleware(s.authRateLimiter, "/api/v1/auth/", s.logger))
	s.router.Use(authMiddleware(s.services.Auth))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerAccountRoutes()
	s.registerAnnotationRoutes()
	s.registerGroupRoutes()

	// Plain chi routes outside the OpenAPI surface.
	if s.services.SSE != nil {
		events := sse.NewHandler(s.services.SSE, func(r *http.Request) string {
			return optionalUserID(r.Context())
		}, s.logger)
		s.router.Method(http.MethodGet, eventsPath, events)
	}
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
}
