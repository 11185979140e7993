package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arena/internal/protocol"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

// Conn is a client websocket connection speaking the envelope protocol.
// Send is safe for concurrent use; Run must be called from one goroutine.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex // serializes writes
}

// Dial connects to a /ws endpoint.
func Dial(ctx context.Context, url string, header http.Header) (*Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Conn{ws: ws}, nil
}

// Send encodes and writes one message.
func (c *Conn) Send(msgType string, payload any) error {
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	return nil
}

// Run reads messages and hands each decoded envelope to handle until the
// connection fails or ctx is done. Undecodable frames are skipped.
func (c *Conn) Run(ctx context.Context, handle func(protocol.Envelope)) error {
	stop := context.AfterFunc(ctx, func() { c.ws.Close() })
	defer stop()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			continue
		}
		handle(env)
	}
}

// Close sends a close frame and closes the socket.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	c.mu.Unlock()
	return c.ws.Close()
}
