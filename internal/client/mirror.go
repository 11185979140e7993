// Package client is the Go side of the websocket protocol: a predictive
// mirror of the server's room and a headless bot built on it.
package client

import (
	"fmt"
	"sync"

	"arena/internal/game"
	"arena/internal/protocol"
)

const mirrorCellSize = 512

// Mirror keeps a non-authoritative copy of the room a client sees. Full
// records create entities, partial records reconcile them, and Step
// predicts motion between server updates. Entities the server stops
// sending expire on their own.
type Mirror struct {
	mu       sync.Mutex
	room     *game.Room
	roomID   string
	playerID string
	updates  uint64
}

// NewMirror creates an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{}
}

// Apply feeds one server message into the mirror. Unknown message types
// are ignored.
func (m *Mirror) Apply(env protocol.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch env.T {
	case protocol.MsgRoomJoined:
		joined, err := protocol.DecodePayload[protocol.RoomJoined](env)
		if err != nil {
			return fmt.Errorf("room_joined: %w", err)
		}
		if joined.RoomID != m.roomID {
			m.room = nil
		}
		m.roomID = joined.RoomID
		m.playerID = joined.PlayerID

	case protocol.MsgRoomLeft:
		m.room = nil
		m.roomID = ""
		m.playerID = ""

	case protocol.MsgStateUpdate:
		state, err := protocol.DecodePayload[protocol.StateUpdate](env)
		if err != nil {
			return fmt.Errorf("state_update: %w", err)
		}
		if m.room == nil || m.room.Size() != state.RoomSize {
			m.room = game.NewRoom(game.RoomConfig{
				ID:       m.roomID,
				Size:     state.RoomSize,
				CellSize: mirrorCellSize,
			})
		}
		m.room.ApplyState(state.Entities)
		m.updates++
	}
	return nil
}

// Step advances local prediction by dt seconds.
func (m *Mirror) Step(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.room != nil {
		m.room.Update(dt)
	}
}

// View runs fn with the mirrored room and the local player (either may be
// nil) while holding the mirror lock. fn must not retain them.
func (m *Mirror) View(fn func(room *game.Room, player *game.Entity)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var player *game.Entity
	if m.room != nil && m.playerID != "" {
		player, _ = m.room.Entity(m.playerID)
	}
	fn(m.room, player)
}

// RoomID returns the joined room, or "".
func (m *Mirror) RoomID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

// PlayerID returns the entity id of the local player, or "".
func (m *Mirror) PlayerID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerID
}

// Updates returns the number of state updates applied.
func (m *Mirror) Updates() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}
