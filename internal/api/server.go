package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"arena/internal/config"
)

// Server is the public HTTP API server with websocket support.
type Server struct {
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates the API server.
//
// No listener is opened until Start is called, so tests can construct the
// server and use Router() with httptest.
func NewServer(eng EngineInterface, cfg config.AppConfig) *Server {
	s := &Server{
		rateLimiter: NewIPRateLimiter(cfg.RateLimit),
		wsHub:       NewWebSocketHub(eng, cfg.Limits, NewOriginChecker(cfg.Server.AllowedOrigins)),
	}

	s.router = NewRouter(RouterConfig{
		Engine:      eng,
		Rooms:       cfg.Rooms.Allowed,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.Server.AllowedOrigins,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Start listens on addr and blocks until the server stops. It returns nil
// after a graceful Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🔌 WebSocket: ws://localhost%s/ws", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and releases background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
