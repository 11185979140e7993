// Package protocol defines the websocket wire format: a JSON envelope
// {"t": type, "p": payload} and the payloads carried in it.
package protocol

import (
	"encoding/json"
)

// Client -> server message types.
const (
	MsgRequestJoinRoom = "request_join_room"
	MsgUpdateInput     = "update_input"
	MsgUpgradeSkill    = "upgrade_skill"
	MsgResizeViewport  = "resize_viewport"
	MsgPing            = "ping"
)

// Server -> client message types.
const (
	MsgRoomJoined  = "room_joined"
	MsgRoomLeft    = "room_left"
	MsgStateUpdate = "state_update"
	MsgPong        = "pong"
)

// Envelope wraps every message in both directions.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}
