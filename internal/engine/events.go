package engine

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeRoomCreated
	EventTypeRoomDestroyed
	EventTypeJoin
	EventTypeLeave
	EventTypeKill
	EventTypeLevelUp
)

// EventVersion for backwards compatibility when reading old logs
const EventVersion uint8 = 1

// Event is one line of the JSONL event log.
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Name      string          `json:"name"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // assigned by the log
	Tick      uint64          `json:"tick"`
	RoomID    string          `json:"roomId"` // rate limit key
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeRoomCreated:
		return "room_created"
	case EventTypeRoomDestroyed:
		return "room_destroyed"
	case EventTypeJoin:
		return "join"
	case EventTypeLeave:
		return "leave"
	case EventTypeKill:
		return "kill"
	case EventTypeLevelUp:
		return "level_up"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// SessionPayload is carried by join and leave events.
type SessionPayload struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName,omitempty"`
	PlayerID    string `json:"playerId,omitempty"`
}

// KillPayload contains kill event details
type KillPayload struct {
	VictimID   string  `json:"victimId"`
	VictimKind string  `json:"victimKind"`
	VictimName string  `json:"victimName,omitempty"`
	KillerID   string  `json:"killerId"`
	AwardeeID  string  `json:"awardeeId,omitempty"`
	Score      float64 `json:"score"`
}

// LevelUpPayload is emitted when a player crosses an integer level.
type LevelUpPayload struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Level     int    `json:"level"`
}

// NewEvent creates an event with the payload encoded. A payload that
// cannot be encoded is dropped rather than failing the caller.
func NewEvent(eventType EventType, tick uint64, roomID string, payload any) Event {
	var data json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			data = b
		}
	}
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Name:      eventType.String(),
		Timestamp: time.Now().UnixNano(),
		Tick:      tick,
		RoomID:    roomID,
		Payload:   data,
	}
}
