// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for server and simulation settings.
//
// Every group has a DefaultX constructor and an XFromEnv variant that
// applies environment overrides on top of the defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string // CORS and websocket origin allow-list
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
		},
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if origins := getEnvList("ALLOWED_ORIGINS"); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	return cfg
}

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimulationConfig holds engine and room settings.
type SimulationConfig struct {
	TickRate           int           // simulation steps per second
	BroadcastEvery     int           // broadcast on every Nth tick
	PollInterval       time.Duration // scheduler wake-up period
	RoomSize           float64       // arena edge length
	CellSize           float64       // broad-phase cell edge
	ShapeTarget        int           // shapes kept alive per room
	ShapeSpawnsPerTick int
	ShapeShapeDamage   bool
	ParallelRooms      bool  // update rooms on separate goroutines
	Seed               int64 // 0 picks a time-based seed
}

// DefaultSimulation returns the default simulation configuration.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		TickRate:           60,
		BroadcastEvery:     3, // 20 Hz
		PollInterval:       time.Millisecond,
		RoomSize:           2048,
		CellSize:           512,
		ShapeTarget:        40,
		ShapeSpawnsPerTick: 2,
	}
}

// SimulationFromEnv returns simulation configuration with environment variable overrides.
func SimulationFromEnv() SimulationConfig {
	cfg := DefaultSimulation()

	if v := getEnvInt("TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvInt("BROADCAST_EVERY", 0); v > 0 {
		cfg.BroadcastEvery = v
	}
	if v := getEnvInt("POLL_INTERVAL_MS", 0); v > 0 {
		cfg.PollInterval = time.Duration(v) * time.Millisecond
	}
	if v := getEnvFloat("ROOM_SIZE", 0); v > 0 {
		cfg.RoomSize = v
	}
	if v := getEnvFloat("CELL_SIZE", 0); v > 0 {
		cfg.CellSize = v
	}
	if v := getEnvInt("SHAPE_TARGET", -1); v >= 0 {
		cfg.ShapeTarget = v
	}
	if v := getEnvInt("SHAPE_SPAWNS_PER_TICK", 0); v > 0 {
		cfg.ShapeSpawnsPerTick = v
	}
	if os.Getenv("SHAPE_SHAPE_DAMAGE") == "true" {
		cfg.ShapeShapeDamage = true
	}
	if os.Getenv("PARALLEL_ROOMS") == "true" {
		cfg.ParallelRooms = true
	}
	if v := getEnvInt("SIM_SEED", 0); v != 0 {
		cfg.Seed = int64(v)
	}

	return cfg
}

// =============================================================================
// ROOMS
// =============================================================================

// RoomsConfig lists the rooms clients may join.
type RoomsConfig struct {
	Allowed []string
}

// DefaultRooms returns the default room allow-list.
func DefaultRooms() RoomsConfig {
	return RoomsConfig{Allowed: []string{"room1", "room2", "room3"}}
}

// RoomsFromEnv returns the room allow-list with environment variable overrides.
func RoomsFromEnv() RoomsConfig {
	cfg := DefaultRooms()
	if rooms := getEnvList("ROOMS"); len(rooms) > 0 {
		cfg.Allowed = rooms
	}
	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// LimitsConfig controls DoS protection and queue sizes.
type LimitsConfig struct {
	MaxSessions       int // hard cap on connected sessions
	InboxSize         int // engine command queue
	OutboxSize        int // per-connection outgoing frames
	MaxWSConnections  int
	MaxWSPerIP        int
	MaxMessageBytes   int64
	MessagesPerSecond float64 // per-connection inbound rate
	MessageBurst      int
	MaxNameLength     int // display names are truncated to this many runes
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxSessions:       1000,
		InboxSize:         4096,
		OutboxSize:        64,
		MaxWSConnections:  500,
		MaxWSPerIP:        10,
		MaxMessageBytes:   4096,
		MessagesPerSecond: 90,
		MessageBurst:      180,
		MaxNameLength:     24,
	}
}

// LimitsFromEnv returns resource limits with environment variable overrides.
func LimitsFromEnv() LimitsConfig {
	cfg := DefaultLimits()

	if v := getEnvInt("MAX_SESSIONS", 0); v > 0 {
		cfg.MaxSessions = v
	}
	if v := getEnvInt("INBOX_SIZE", 0); v > 0 {
		cfg.InboxSize = v
	}
	if v := getEnvInt("OUTBOX_SIZE", 0); v > 0 {
		cfg.OutboxSize = v
	}
	if v := getEnvInt("MAX_WS_CONNECTIONS", 0); v > 0 {
		cfg.MaxWSConnections = v
	}
	if v := getEnvInt("MAX_WS_PER_IP", 0); v > 0 {
		cfg.MaxWSPerIP = v
	}
	if v := getEnvFloat("WS_MESSAGES_PER_SECOND", 0); v > 0 {
		cfg.MessagesPerSecond = v
	}

	return cfg
}

// =============================================================================
// HTTP RATE LIMITING
// =============================================================================

// RateLimitConfig configures the per-IP HTTP rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration // how often stale limiters are dropped
}

// DefaultRateLimit returns production-safe defaults.
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		CleanupInterval:   5 * time.Minute,
	}
}

// RateLimitFromEnv returns rate limit configuration with environment variable overrides.
func RateLimitFromEnv() RateLimitConfig {
	cfg := DefaultRateLimit()
	if v := getEnvFloat("HTTP_RPS", 0); v > 0 {
		cfg.RequestsPerSecond = v
	}
	if v := getEnvInt("HTTP_BURST", 0); v > 0 {
		cfg.Burst = v
	}
	return cfg
}

// =============================================================================
// DEBUG SERVER
// =============================================================================

// DebugConfig configures the internal observability server.
type DebugConfig struct {
	Enabled       bool
	ListenAddr    string // localhost only unless ALLOW_DEBUG_EXTERNAL=true
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultDebug returns safe defaults.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugFromEnv returns debug server configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()
	if os.Getenv("DEBUG_SERVER") == "false" {
		cfg.Enabled = false
	}
	if v := os.Getenv("DEBUG_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	cfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	cfg.BasicAuthPass = os.Getenv("DEBUG_PASS")
	return cfg
}

// =============================================================================
// EVENT LOG
// =============================================================================

// EventLogConfig configures the JSONL event log.
type EventLogConfig struct {
	Path               string // empty disables file output
	MaxEventsPerSec    float64
	MaxEventsPerRoom   float64
	FlushInterval      time.Duration
	RoomLimiterCleanup time.Duration
}

// DefaultEventLog returns the default event log configuration.
func DefaultEventLog() EventLogConfig {
	return EventLogConfig{
		MaxEventsPerSec:    10000,
		MaxEventsPerRoom:   500,
		FlushInterval:      100 * time.Millisecond,
		RoomLimiterCleanup: 5 * time.Minute,
	}
}

// EventLogFromEnv returns event log configuration with environment variable overrides.
func EventLogFromEnv() EventLogConfig {
	cfg := DefaultEventLog()
	cfg.Path = os.Getenv("EVENT_LOG_PATH")
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server     ServerConfig
	Simulation SimulationConfig
	Rooms      RoomsConfig
	Limits     LimitsConfig
	RateLimit  RateLimitConfig
	Debug      DebugConfig
	EventLog   EventLogConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server:     ServerFromEnv(),
		Simulation: SimulationFromEnv(),
		Rooms:      RoomsFromEnv(),
		Limits:     LimitsFromEnv(),
		RateLimit:  RateLimitFromEnv(),
		Debug:      DebugFromEnv(),
		EventLog:   EventLogFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
