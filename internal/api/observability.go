package api

import (
	"bytes"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arena/internal/config"
	"arena/internal/debugview"
	"arena/internal/engine"
)

// SnapshotSource is anything that publishes engine snapshots.
type SnapshotSource interface {
	Snapshot() *engine.Snapshot
}

// NewDebugHandler builds the debug mux: pprof, Prometheus metrics,
// health, snapshot JSON and a rendered PNG frame per room.
func NewDebugHandler(cfg config.DebugConfig, src SnapshotSource) http.Handler {
	r := chi.NewRouter()

	// pprof endpoints for profiling
	r.HandleFunc("/debug/pprof/*", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/debug/snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, src.Snapshot())
	})

	r.Get("/debug/rooms/{roomID}/frame.png", func(w http.ResponseWriter, r *http.Request) {
		room, ok := src.Snapshot().Room(chi.URLParam(r, "roomID"))
		if !ok {
			writeError(w, "room not active", http.StatusNotFound)
			return
		}
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))

		var buf bytes.Buffer
		if err := debugview.NewRenderer(size).WritePNG(&buf, room); err != nil {
			log.Printf("⚠️ Frame render failed: %v", err)
			writeError(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	})

	var handler http.Handler = r
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, r)
	}
	return handler
}

// debugListenAddr forces the debug server onto loopback unless
// ALLOW_DEBUG_EXTERNAL=true.
func debugListenAddr(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err == nil && (host == "127.0.0.1" || host == "localhost" || host == "::1") {
		return addr
	}
	if os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true" {
		return addr
	}
	log.Println("⚠️ Debug server forced to localhost for security")
	return config.DefaultDebug().ListenAddr
}

// StartDebugServer starts the internal observability server
// CRITICAL: This MUST bind to localhost only to prevent pprof-based DoS
func StartDebugServer(cfg config.DebugConfig, src SnapshotSource) {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return
	}

	addr := debugListenAddr(cfg.ListenAddr)
	handler := NewDebugHandler(cfg, src)

	go func() {
		log.Printf("📊 Debug server starting on %s", addr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", addr)
		log.Printf("   - metrics: http://%s/metrics", addr)
		log.Printf("   - frames:  http://%s/debug/rooms/{roomID}/frame.png", addr)

		if err := http.ListenAndServe(addr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
