package protocol

import "arena/internal/game"

// payloads coming in from the client.

type RequestJoinRoom struct {
	RoomID      string `json:"roomID"`
	DisplayName string `json:"displayName"`
}

// UpdateInput is sparse: absent fields keep their previous value.
type UpdateInput = game.InputPatch

type UpgradeSkill struct {
	Skill string `json:"skill"`
}

type ResizeViewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Ping struct {
	ClientTime int64 `json:"clientTime,omitempty"`
}
