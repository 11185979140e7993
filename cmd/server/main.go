package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"arena/internal/api"
	"arena/internal/config"
	"arena/internal/engine"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  ARENA - GO ROOM SERVER")
	log.Println("🎮 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	simCfg := appConfig.Simulation
	limits := appConfig.Limits

	log.Printf("🎮 Config: %d TPS, broadcast every %d ticks, room size %.0f", simCfg.TickRate, simCfg.BroadcastEvery, simCfg.RoomSize)
	log.Printf("🏟️ Rooms: %v", appConfig.Rooms.Allowed)
	log.Printf("🛡️ Resource limits: %d sessions, %.0f msgs/s per connection, inbox %d",
		limits.MaxSessions, limits.MessagesPerSecond, limits.InboxSize)

	// Start event log
	events := engine.NewEventLog(appConfig.EventLog)
	if err := events.Start(); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
		events = nil
	} else if appConfig.EventLog.Path != "" {
		log.Printf("📝 Event log: %s", appConfig.EventLog.Path)
	}

	registry := engine.NewRegistry(simCfg, appConfig.Rooms, limits)
	eng := engine.New(registry, simCfg, limits, events)

	// Start debug server
	api.StartDebugServer(appConfig.Debug, eng)

	server := api.NewServer(eng, appConfig)

	// Start game engine
	eng.Start()
	log.Println("✅ Room engine started")

	// Start API server in goroutine
	go func() {
		addr := ":" + strconv.Itoa(appConfig.Server.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🔌 WebSocket: ws://localhost%s/ws", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	eng.Stop()
	if events != nil {
		events.Stop()
		stats := events.Stats()
		log.Printf("📝 Events: %d written, %d dropped", stats.Written, stats.Dropped)
	}
	log.Println("👋 Goodbye!")
}
