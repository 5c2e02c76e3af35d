// Package api provides the HTTP adapter over the readlist library.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/readlist/internal/auth"
	"github.com/listenupapp/readlist/internal/ratelimit"
	"github.com/listenupapp/readlist/internal/recommend"
	"github.com/listenupapp/readlist/internal/retry"
	"github.com/listenupapp/readlist/internal/session"
	"github.com/listenupapp/readlist/internal/share"
	"github.com/listenupapp/readlist/internal/sse"
	"github.com/listenupapp/readlist/internal/store"
)

// Services groups the library services the handlers call.
type Services struct {
	Sessions  *session.Manager
	Recommend *recommend.Service
	Share     *share.Service
	Tokens    *auth.TokenService
	// Events streams list changes. Nil disables /api/v1/events.
	Events *sse.Manager
	// Deferred is pinged by /health.
	Deferred Pinger
}

// Pinger is anything /health can check for liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins []string
	ShareRPS       float64
	ShareBurst     int
	Reads          retry.Policy
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        store.Store
	services     *Services
	router       *chi.Mux
	api          huma.API
	logger       *slog.Logger
	shareLimiter *ratelimit.KeyedRateLimiter
	reads        retry.Policy
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.ShareRPS <= 0 {
		opts.ShareRPS = 5
	}
	if opts.ShareBurst < 1 {
		opts.ShareBurst = 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Tokens))

	s := &Server{
		store:        st,
		services:     services,
		router:       router,
		api:          humachi.New(router, newHumaConfig("ReadList API", "1.0.0")),
		logger:       logger,
		shareLimiter: ratelimit.New(opts.ShareRPS, opts.ShareBurst),
		reads:        opts.Reads,
	}
	RegisterErrorHandler()
	s.registerRoutes()

	return s
}

func newHumaConfig(title, version string) huma.Config {
	humaConfig := huma.DefaultConfig(title, version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	return humaConfig
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerSessionRoutes()
	s.registerReadingListRoutes()
	s.registerExclusionRoutes()
	s.registerRecommendationRoutes()
	s.registerShareRoutes()
	s.registerReceivedRoutes()
	s.registerEventRoutes()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.shareLimiter.Stop()
}

// requestLogger logs one line per request at Debug, or Warn for 5xx.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
