package engine

import (
	"slices"
	"time"

	"arena/internal/game"
	"arena/internal/game/geom"
)

// LeaderboardSize is the number of rows kept per room in a snapshot.
const LeaderboardSize = 10

// Snapshot is an immutable summary of all rooms, published after
// broadcast ticks. Readers on other goroutines (HTTP, debug) use it instead
// of touching live room state.
type Snapshot struct {
	Tick     uint64         `json:"tick"`
	Time     time.Time      `json:"time"`
	Sessions int            `json:"sessions"`
	Rooms    []RoomSnapshot `json:"rooms"`
}

// RoomSnapshot summarises one room.
type RoomSnapshot struct {
	ID          string                  `json:"id"`
	Size        float64                 `json:"size"`
	Sessions    int                     `json:"sessions"`
	Entities    int                     `json:"entities"`
	Shapes      int                     `json:"shapes"`
	Leaderboard []game.LeaderboardEntry `json:"leaderboard"`
	Bodies      []Body                  `json:"-"`
	Views       []game.Rect             `json:"-"`
}

// Body is the drawable state of one entity.
type Body struct {
	ID         string
	Kind       game.Kind
	Name       string
	Position   geom.Vec2
	Rotation   float64
	Radius     float64
	BaseRadius float64
	Points     []geom.Vec2 // outline at BaseRadius, nil for circles
	Health     float64
	MaxHealth  float64
	Dead       bool
}

// Room returns the snapshot of one room.
func (s *Snapshot) Room(id string) (RoomSnapshot, bool) {
	for _, r := range s.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return RoomSnapshot{}, false
}

// Snapshot returns the latest published snapshot. It never returns nil.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

func (e *Engine) publish(rooms []*game.Room) {
	snap := &Snapshot{
		Tick:     e.tick,
		Time:     time.Now(),
		Sessions: e.reg.SessionCount(),
		Rooms:    make([]RoomSnapshot, 0, len(rooms)),
	}
	for _, r := range rooms {
		snap.Rooms = append(snap.Rooms, snapshotRoom(r))
	}
	e.snapshot.Store(snap)
}

func snapshotRoom(r *game.Room) RoomSnapshot {
	entities := r.Entities()
	rs := RoomSnapshot{
		ID:          r.ID(),
		Size:        r.Size(),
		Sessions:    r.Sessions(),
		Entities:    len(entities),
		Shapes:      r.Shapes(),
		Leaderboard: r.Leaderboard().Top(LeaderboardSize),
		Bodies:      make([]Body, len(entities)),
	}
	for i, e := range entities {
		rs.Bodies[i] = Body{
			ID:         e.ID,
			Kind:       e.Kind,
			Name:       e.Name,
			Position:   e.Position,
			Rotation:   e.Rotation,
			Radius:     e.Radius,
			BaseRadius: e.BaseRadius,
			Points:     slices.Clone(e.Points),
			Health:     e.Health,
			MaxHealth:  e.MaxHealth,
			Dead:       e.DeadFlag,
		}
	}
	r.Viewports().ForEach(func(v *game.Viewer) {
		rs.Views = append(rs.Views, v.View)
	})
	return rs
}
