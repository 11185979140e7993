package engine

import (
	"hash/fnv"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"arena/internal/config"
	"arena/internal/game"
)

// Sink receives encoded frames for one session. Send must not block; it
// returns false when the frame had to be dropped.
type Sink interface {
	Send(frame []byte) bool
}

// Session is one connected client.
type Session struct {
	ID          string
	DisplayName string
	RoomID      string // "" when not in a room
	sink        Sink
}

// Registry owns rooms and sessions. It is created at server start and
// handed to the engine, which is its only writer.
type Registry struct {
	sim      config.SimulationConfig
	allowed  map[string]bool
	order    []string // allowed room ids in configured order
	maxName  int
	seed     int64
	rooms    map[string]*game.Room
	members  map[string]map[string]struct{} // room id -> session ids
	sessions map[string]*Session
}

// NewRegistry creates an empty registry for the given room allow-list.
func NewRegistry(sim config.SimulationConfig, rooms config.RoomsConfig, limits config.LimitsConfig) *Registry {
	seed := sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	reg := &Registry{
		sim:      sim,
		allowed:  make(map[string]bool, len(rooms.Allowed)),
		maxName:  limits.MaxNameLength,
		seed:     seed,
		rooms:    make(map[string]*game.Room),
		members:  make(map[string]map[string]struct{}),
		sessions: make(map[string]*Session),
	}
	for _, id := range rooms.Allowed {
		if !reg.allowed[id] {
			reg.allowed[id] = true
			reg.order = append(reg.order, id)
		}
	}
	return reg
}

// Allowed reports whether clients may join roomID.
func (reg *Registry) Allowed(roomID string) bool { return reg.allowed[roomID] }

// AllowedRooms returns the configured room ids.
func (reg *Registry) AllowedRooms() []string { return slices.Clone(reg.order) }

// Room returns a live room.
func (reg *Registry) Room(id string) (*game.Room, bool) {
	r, ok := reg.rooms[id]
	return r, ok
}

// Rooms returns live rooms sorted by id.
func (reg *Registry) Rooms() []*game.Room {
	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*game.Room, len(ids))
	for i, id := range ids {
		out[i] = reg.rooms[id]
	}
	return out
}

// Session returns a connected session.
func (reg *Registry) Session(id string) (*Session, bool) {
	s, ok := reg.sessions[id]
	return s, ok
}

// SessionCount returns the number of connected sessions.
func (reg *Registry) SessionCount() int { return len(reg.sessions) }

// Members returns the sessions in a room, sorted by id.
func (reg *Registry) Members(roomID string) []string {
	ids := make([]string, 0, len(reg.members[roomID]))
	for id := range reg.members[roomID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (reg *Registry) addSession(id string, sink Sink) *Session {
	s := &Session{ID: id, sink: sink}
	reg.sessions[id] = s
	return s
}

func (reg *Registry) removeSession(id string) {
	delete(reg.sessions, id)
}

// openRoom returns the room, creating it on first use. The bool reports
// whether the room was created.
func (reg *Registry) openRoom(id string) (*game.Room, bool) {
	if r, ok := reg.rooms[id]; ok {
		return r, false
	}
	r := game.NewRoom(game.RoomConfig{
		ID:                 id,
		Size:               reg.sim.RoomSize,
		CellSize:           reg.sim.CellSize,
		ShapeTarget:        reg.sim.ShapeTarget,
		ShapeSpawnsPerTick: reg.sim.ShapeSpawnsPerTick,
		Rules:              game.Rules{ShapeShapeDamage: reg.sim.ShapeShapeDamage},
		Seed:               roomSeed(reg.seed, id),
		Authoritative:      true,
	})
	reg.rooms[id] = r
	reg.members[id] = make(map[string]struct{})
	return r, true
}

// enter records membership. The caller has already joined the room.
func (reg *Registry) enter(s *Session, roomID string) {
	s.RoomID = roomID
	reg.members[roomID][s.ID] = struct{}{}
}

// exit drops membership and tears the room down when it empties. It
// returns the room and whether it was destroyed.
func (reg *Registry) exit(s *Session) (*game.Room, bool) {
	roomID := s.RoomID
	s.RoomID = ""
	r, ok := reg.rooms[roomID]
	if !ok {
		return nil, false
	}
	r.Leave(s.ID)
	delete(reg.members[roomID], s.ID)
	if len(reg.members[roomID]) > 0 {
		return r, false
	}
	delete(reg.rooms, roomID)
	delete(reg.members, roomID)
	return r, true
}

// cleanName trims and truncates a display name.
func (reg *Registry) cleanName(name string) string {
	name = strings.TrimSpace(name)
	if !utf8.ValidString(name) {
		name = strings.ToValidUTF8(name, "")
	}
	if reg.maxName > 0 && utf8.RuneCountInString(name) > reg.maxName {
		runes := []rune(name)
		name = string(runes[:reg.maxName])
	}
	return name
}

// roomSeed derives a stable per-room seed so rooms sharing a base seed
// still diverge.
func roomSeed(base int64, roomID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(roomID))
	return base ^ int64(h.Sum64())
}
