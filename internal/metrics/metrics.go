// Package metrics holds the process-wide Prometheus collectors.
//
// Labels are bounded: room ids come from the configured allow-list and
// reasons from fixed sets. Nothing is labelled per session.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Simulation
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent advancing every room by one tick",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.0167, 0.033},
	})

	roomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_rooms_active",
		Help: "Rooms currently simulated",
	})

	entityCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_entities",
		Help: "Entities per room",
	}, []string{"room"})

	sessionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_sessions",
		Help: "Connected sessions",
	})

	collisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_collisions_total",
		Help: "Resolved collision pairs",
	})

	killsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_kills_total",
		Help: "Deaths caused by contact, by victim kind",
	}, []string{"kind"})

	broadcastBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_broadcast_bytes_total",
		Help: "Bytes of state updates queued for clients",
	})

	commandsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_commands_dropped_total",
		Help: "Commands or messages dropped under backpressure",
	}, []string{"reason"}) // Bounded: "inbox_full", "outbox_full", "rate_limit"

	// Event log
	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_dropped_total",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// Transport
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket messages by direction",
	}, []string{"direction"}) // "in", "out"
)

// RecordTick records how long one engine tick took.
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// SetRooms updates the active room gauge.
func SetRooms(n int) {
	roomsActive.Set(float64(n))
}

// SetEntities updates a room's entity gauge.
func SetEntities(room string, n int) {
	entityCount.WithLabelValues(room).Set(float64(n))
}

// ForgetRoom drops the per-room series of a torn down room.
func ForgetRoom(room string) {
	entityCount.DeleteLabelValues(room)
}

// SetSessions updates the session gauge.
func SetSessions(n int) {
	sessionCount.Set(float64(n))
}

// AddCollisions counts resolved pairs.
func AddCollisions(n int) {
	if n > 0 {
		collisionsTotal.Add(float64(n))
	}
}

// RecordKill counts one death by victim kind.
func RecordKill(kind string) {
	killsTotal.WithLabelValues(kind).Inc()
}

// AddBroadcastBytes counts outgoing state bytes.
func AddBroadcastBytes(n int) {
	broadcastBytes.Add(float64(n))
}

// RecordDropped counts a dropped command or message.
func RecordDropped(reason string) {
	commandsDropped.WithLabelValues(reason).Inc()
}

// RecordEvent counts an event log emission attempt.
func RecordEvent(accepted bool) {
	if accepted {
		eventLogTotal.Inc()
		return
	}
	eventLogDropped.Inc()
}

// RecordConnectionRejected increments the rejection counter.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics.
func RecordRequest(method, endpoint string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// SetWSConnections updates the WebSocket connection gauge.
func SetWSConnections(n int) {
	wsConnectionsActive.Set(float64(n))
}

// RecordWSMessage counts one WebSocket frame.
func RecordWSMessage(direction string) {
	wsMessagesTotal.WithLabelValues(direction).Inc()
}
