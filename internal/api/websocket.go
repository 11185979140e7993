package api

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"arena/internal/config"
	"arena/internal/engine"
	"arena/internal/metrics"
	"arena/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// GameEngine is the part of the engine the websocket transport drives.
type GameEngine interface {
	Connect(sink engine.Sink) (string, error)
	Disconnect(sessionID string) error
	JoinRoom(sessionID, roomID, displayName string) error
	Input(sessionID string, patch protocol.UpdateInput) error
	UpgradeSkill(sessionID, skill string) error
	Resize(sessionID string, width, height float64) error
}

// wsClient is one websocket connection. It implements engine.Sink.
type wsClient struct {
	hub       *WebSocketHub
	conn      *websocket.Conn
	ip        string
	sessionID string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter
}

// Send queues a frame without blocking. Frames for a slow or closed
// client are dropped.
func (c *wsClient) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// WebSocketHub accepts websocket connections with DoS protection and
// bridges them to the engine.
type WebSocketHub struct {
	engine   GameEngine
	limits   config.LimitsConfig
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub creates a new hub with connection limiting
func NewWebSocketHub(eng GameEngine, limits config.LimitsConfig, origins *OriginChecker) *WebSocketHub {
	h := &WebSocketHub{
		engine:    eng,
		limits:    limits,
		clients:   make(map[*wsClient]struct{}),
		wsLimiter: NewWebSocketRateLimiter(limits.MaxWSPerIP),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins.Allowed(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			metrics.RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHub) register(c *wsClient) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	metrics.SetWSConnections(len(h.clients))
	return len(h.clients)
}

func (h *WebSocketHub) unregister(c *wsClient) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		h.wsLimiter.Release(c.ip)
	}
	metrics.SetWSConnections(len(h.clients))
	return len(h.clients)
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= h.limits.MaxWSConnections {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		metrics.RecordConnectionRejected("ws_total_limit")
		writeError(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		metrics.RecordConnectionRejected("ws_ip_limit")
		writeError(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	burst := h.limits.MessageBurst
	if burst <= 0 {
		burst = 1
	}
	c := &wsClient{
		hub:     h,
		conn:    conn,
		ip:      ip,
		send:    make(chan []byte, max(h.limits.OutboxSize, 1)),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(h.limits.MessagesPerSecond), burst),
	}

	sessionID, err := h.engine.Connect(c)
	if err != nil {
		reason := "engine_busy"
		if errors.Is(err, engine.ErrTooManySessions) {
			reason = "session_limit"
		}
		log.Printf("⚠️ Session rejected for %s: %v", ip, err)
		metrics.RecordConnectionRejected(reason)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		h.wsLimiter.Release(ip)
		return
	}
	c.sessionID = sessionID

	count := h.register(c)
	log.Printf("📱 Client %s connected from %s (%d total)", sessionID, ip, count)

	go c.writePump()
	go c.readPump()
}

// readPump forwards client messages to the engine until the socket fails.
func (c *wsClient) readPump() {
	defer func() {
		if err := c.hub.engine.Disconnect(c.sessionID); err != nil && !errors.Is(err, engine.ErrStopped) {
			log.Printf("⚠️ Disconnect %s: %v", c.sessionID, err)
		}
		c.close()
		c.conn.Close()
		count := c.hub.unregister(c)
		log.Printf("📱 Client %s disconnected (%d remaining)", c.sessionID, count)
	}()

	if c.hub.limits.MaxMessageBytes > 0 {
		c.conn.SetReadLimit(c.hub.limits.MaxMessageBytes)
	}
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ WebSocket read error from %s: %v", c.ip, err)
			}
			return
		}
		metrics.RecordWSMessage("in")

		if !c.limiter.Allow() {
			metrics.RecordDropped("rate_limit")
			continue
		}
		c.handleMessage(message)
	}
}

// handleMessage dispatches one envelope. Malformed messages are dropped
// without a reply.
func (c *wsClient) handleMessage(message []byte) {
	env, err := protocol.DecodeEnvelope(message)
	if err != nil {
		metrics.RecordDropped("invalid")
		return
	}

	eng := c.hub.engine
	switch env.T {
	case protocol.MsgRequestJoinRoom:
		if req, err := protocol.DecodePayload[protocol.RequestJoinRoom](env); err == nil {
			err = eng.JoinRoom(c.sessionID, req.RoomID, req.DisplayName)
			if errors.Is(err, engine.ErrUnknownRoom) {
				metrics.RecordDropped("unknown_room")
			}
		}
	case protocol.MsgUpdateInput:
		if in, err := protocol.DecodePayload[protocol.UpdateInput](env); err == nil {
			eng.Input(c.sessionID, in)
		}
	case protocol.MsgUpgradeSkill:
		if req, err := protocol.DecodePayload[protocol.UpgradeSkill](env); err == nil {
			eng.UpgradeSkill(c.sessionID, req.Skill)
		}
	case protocol.MsgResizeViewport:
		if req, err := protocol.DecodePayload[protocol.ResizeViewport](env); err == nil {
			eng.Resize(c.sessionID, req.Width, req.Height)
		}
	case protocol.MsgPing:
		// Answered here; the engine never sees pings.
		ping, _ := protocol.DecodePayload[protocol.Ping](env)
		if frame, err := protocol.Encode(protocol.MsgPong, protocol.Pong{
			ClientTime: ping.ClientTime,
			ServerTime: time.Now().UnixMilli(),
		}); err == nil {
			c.Send(frame)
		}
	default:
		metrics.RecordDropped("invalid")
	}
}

// writePump owns all writes to the socket.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
			metrics.RecordWSMessage("out")

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
