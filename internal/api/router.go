package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"arena/internal/config"
	"arena/internal/engine"
	"arena/internal/metrics"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the game loop.
type EngineInterface interface {
	GameEngine
	// Snapshot returns the latest immutable summary of all rooms
	Snapshot() *engine.Snapshot
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    Rooms:  []string{"room1"},
//	    RateLimitConfig: &config.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the simulation engine (required)
	Engine EngineInterface

	// Rooms is the allow-list reported by /api/rooms
	Rooms []string

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	// If both are nil, uses config.DefaultRateLimit.
	RateLimitConfig *config.RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, localhost on any port is allowed.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine EngineInterface
	rooms  []string
	known  map[string]bool
}

// NewRouter constructs the HTTP router with all middleware and API routes.
// The websocket route is added by Server, which owns the hub.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := config.DefaultRateLimit()
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	h := &routerHandlers{
		engine: cfg.Engine,
		rooms:  cfg.Rooms,
		known:  make(map[string]bool, len(cfg.Rooms)),
	}
	for _, id := range cfg.Rooms {
		h.known[id] = true
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Get("/rooms", h.handleListRooms)
		r.Get("/rooms/{roomID}", h.handleGetRoom)
		r.Get("/rooms/{roomID}/leaderboard", h.handleGetLeaderboard)
	})

	return r
}

// requestMetrics records latency per route pattern, never per raw path.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordRequest(r.Method, pattern, status, time.Since(start))
	})
}
