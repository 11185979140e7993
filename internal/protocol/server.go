package protocol

import "arena/internal/game"

type RoomJoined struct {
	RoomID      string `json:"roomID"`
	DisplayName string `json:"displayName"`
	PlayerID    string `json:"playerID"` // entity id of the joined player
}

type RoomLeft struct{}

type StateUpdate struct {
	Entities []game.EntityUpdate `json:"entities"`
	RoomSize float64             `json:"roomSize"`
}

type Pong struct {
	ClientTime int64 `json:"clientTime,omitempty"`
	ServerTime int64 `json:"serverTime"` // unix milliseconds
}
