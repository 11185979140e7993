package game

import (
	"fmt"
	"math"
	"math/rand"

	"arena/internal/game/geom"
	"arena/internal/game/spatial"
)

// RoomConfig holds per-room simulation settings.
type RoomConfig struct {
	ID       string
	Size     float64 // edge length of the square arena centred on the origin
	CellSize float64 // broad-phase cell edge

	ShapeTarget        int // live shapes the room keeps around
	ShapeSpawnsPerTick int

	Rules Rules
	Seed  int64

	// Authoritative rooms run damage, shooting, progression, spawning and
	// viewports. Client mirrors only predict motion.
	Authoritative bool
}

// DefaultRoomConfig returns the server-side defaults.
func DefaultRoomConfig(id string) RoomConfig {
	return RoomConfig{
		ID:                 id,
		Size:               2048,
		CellSize:           512,
		ShapeTarget:        40,
		ShapeSpawnsPerTick: 2,
		Seed:               1,
		Authoritative:      true,
	}
}

// LevelUp reports a player crossing an integer level.
type LevelUp struct {
	EntityID  string
	SessionID string
	Level     int
}

// TickReport summarises what happened during one Room.Update.
type TickReport struct {
	Kills      []KillEvent
	LevelUps   []LevelUp
	Spawned    int
	Removed    int
	Collisions int
}

// Room owns a set of entities and advances them together. A Room is not
// safe for concurrent use; the engine drives each room from one goroutine.
type Room struct {
	cfg RoomConfig

	entities []*Entity // insertion order
	byID     map[string]*Entity
	nextID   uint64
	pending  []*Entity

	players   map[string]*Entity // session id -> player entity
	sessionOf map[string]string  // player entity id -> session id

	grid      *spatial.SpatialGrid
	resolved  map[pairKey]struct{}
	viewports *Viewports
	board     *Leaderboard
	rng       *rand.Rand

	shapes int
	tick   uint64
}

// NewRoom creates an empty room.
func NewRoom(cfg RoomConfig) *Room {
	if !(cfg.Size > 0) {
		cfg.Size = 2048
	}
	return &Room{
		cfg:       cfg,
		byID:      make(map[string]*Entity),
		players:   make(map[string]*Entity),
		sessionOf: make(map[string]string),
		grid:      spatial.NewSpatialGrid(cfg.CellSize, 64),
		resolved:  make(map[pairKey]struct{}),
		viewports: NewViewports(),
		board:     NewLeaderboard(cfg.Seed),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}
}

// ID returns the room id.
func (r *Room) ID() string { return r.cfg.ID }

// Size returns the arena edge length.
func (r *Room) Size() float64 { return r.cfg.Size }

// Config returns the room settings.
func (r *Room) Config() RoomConfig { return r.cfg }

// Tick returns how many updates have run.
func (r *Room) Tick() uint64 { return r.tick }

// Len returns the number of entities.
func (r *Room) Len() int { return len(r.entities) }

// Entities returns the live entity slice in insertion order. Callers must
// not modify it.
func (r *Room) Entities() []*Entity { return r.entities }

// Entity looks up an entity by id.
func (r *Room) Entity(id string) (*Entity, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// Shapes returns the number of shapes in the room.
func (r *Room) Shapes() int { return r.shapes }

// Viewports exposes the room's viewer bookkeeping.
func (r *Room) Viewports() *Viewports { return r.viewports }

// Leaderboard returns the room ranking as of the last refresh.
func (r *Room) Leaderboard() *Leaderboard { return r.board }

// AddEntity inserts e and returns its id. Entities arriving without an id
// get the next "e<N>".
func (r *Room) AddEntity(e *Entity) string {
	if e.ID == "" {
		r.nextID++
		e.ID = fmt.Sprintf("e%d", r.nextID)
	}
	if old, ok := r.byID[e.ID]; ok {
		r.detach(old)
	}
	r.entities = append(r.entities, e)
	r.byID[e.ID] = e
	if e.Kind == KindShape {
		r.shapes++
	}
	return e.ID
}

// RemoveEntity deletes an entity immediately. Unknown ids are ignored.
func (r *Room) RemoveEntity(id string) {
	e, ok := r.byID[id]
	if !ok {
		return
	}
	r.detach(e)
}

func (r *Room) detach(e *Entity) {
	for i, x := range r.entities {
		if x == e {
			r.entities = append(r.entities[:i], r.entities[i+1:]...)
			break
		}
	}
	r.forget(e)
}

// forget drops every index entry for e except the entity slice.
func (r *Room) forget(e *Entity) {
	if r.byID[e.ID] == e {
		delete(r.byID, e.ID)
	}
	if e.Kind == KindShape {
		r.shapes--
	}
	if sid, ok := r.sessionOf[e.ID]; ok {
		delete(r.sessionOf, e.ID)
		if r.players[sid] == e {
			delete(r.players, sid)
		}
		r.board.Remove(e.ID)
	}
}

// randomPosition picks a point inside the arena at least margin from the edge.
func (r *Room) randomPosition(margin float64) geom.Vec2 {
	half := r.cfg.Size/2 - margin
	if half < 0 {
		half = 0
	}
	return geom.V((r.rng.Float64()*2-1)*half, (r.rng.Float64()*2-1)*half)
}

// Join puts a session in the room. A session whose player is alive keeps
// it; a dead or missing player is replaced by a fresh one.
func (r *Room) Join(sessionID, name string) *Entity {
	r.viewports.Add(sessionID)
	if p, ok := r.players[sessionID]; ok && !p.DeadFlag {
		p.Name = name
		return p
	}
	p := NewPlayer(DefaultPlayer(name, r.randomPosition(PlayerFinalRadius)))
	r.AddEntity(p)
	r.players[sessionID] = p
	r.sessionOf[p.ID] = sessionID
	r.board.Update(p)
	return p
}

// Leave removes a session. Its player starts dying and fades out.
func (r *Room) Leave(sessionID string) {
	if p, ok := r.players[sessionID]; ok {
		p.Kill()
		delete(r.players, sessionID)
		delete(r.sessionOf, p.ID)
		r.board.Remove(p.ID)
	}
	r.viewports.Remove(sessionID)
}

// Sessions returns the number of sessions viewing the room.
func (r *Room) Sessions() int { return r.viewports.Len() }

// Player returns the entity a session controls.
func (r *Room) Player(sessionID string) (*Entity, bool) {
	p, ok := r.players[sessionID]
	return p, ok
}

// ApplyInput merges a sparse intent onto a session's player. Unknown
// sessions are ignored.
func (r *Room) ApplyInput(sessionID string, p InputPatch) {
	e, ok := r.players[sessionID]
	if !ok || e.DeadFlag {
		return
	}
	ApplyInput(e, p)
}

// UpgradeSkill spends a skill point for a session's player.
func (r *Room) UpgradeSkill(sessionID string, s Skill) bool {
	e, ok := r.players[sessionID]
	if !ok {
		return false
	}
	return UpgradeSkill(e, s)
}

// Resize sets a session's canvas size.
func (r *Room) Resize(sessionID string, width, height float64) bool {
	return r.viewports.Resize(sessionID, width, height)
}

// Update advances the room by dt seconds.
//
// Order: entity physics and progression, shooting, removal of faded
// entities, shape spawning, collisions, then viewports.
func (r *Room) Update(dt float64) TickReport {
	var rep TickReport
	if !geom.IsFinite(dt) || dt < 0 {
		dt = 0
	}
	r.tick++

	for _, e := range r.entities {
		e.Update(dt, r.cfg.Size)
		if !r.cfg.Authoritative {
			continue
		}
		if e.Kind == KindPlayer {
			before := int(e.Level)
			levelTable.applyProgression(e)
			if after := int(e.Level); after > before {
				rep.LevelUps = append(rep.LevelUps, LevelUp{
					EntityID:  e.ID,
					SessionID: r.sessionOf[e.ID],
					Level:     after,
				})
			}
		}
		if e.Shooting || e.ShootingSecondary {
			r.pending = append(r.pending, e.Shoot(r.rng)...)
		}
	}
	for _, p := range r.pending {
		r.AddEntity(p)
	}
	clear(r.pending)
	r.pending = r.pending[:0]

	rep.Removed = r.sweep()
	if r.cfg.Authoritative {
		rep.Spawned = r.spawnShapes()
	}

	r.collide(dt, &rep)

	if r.cfg.Authoritative {
		r.viewports.Update(r.entities, r.grid, r.players)
	}
	return rep
}

// sweep deletes entities whose fade has finished, keeping order.
func (r *Room) sweep() int {
	kept := r.entities[:0]
	removed := 0
	for _, e := range r.entities {
		if e.RemoveFlag {
			r.forget(e)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	clear(r.entities[len(kept):])
	r.entities = kept
	return removed
}

// RefreshLeaderboard re-ranks the room's players.
func (r *Room) RefreshLeaderboard() {
	for _, p := range r.players {
		if !p.RemoveFlag {
			r.board.Update(p)
		}
	}
}

// StateFor builds the entity updates for one viewer.
func (r *Room) StateFor(sessionID string) []EntityUpdate {
	return r.viewports.Serialize(sessionID)
}

// ApplyState feeds authoritative updates into a mirror room: full records
// create (or replace) entities, partial records reconcile existing ones.
// Partial records for unknown ids are ignored.
func (r *Room) ApplyState(updates []EntityUpdate) {
	for _, u := range updates {
		switch {
		case u.Full != nil:
			rec := *u.Full
			if rec.ID == "" {
				rec.ID = u.ID
			}
			r.AddEntity(NewMirrorEntity(&rec))
		case u.Partial != nil:
			if e, ok := r.byID[u.ID]; ok {
				e.Reconcile(u.Partial)
			}
		}
	}
}

// Nearest returns the closest live entity to pos matching keep, or nil.
func (r *Room) Nearest(pos geom.Vec2, keep func(*Entity) bool) *Entity {
	var best *Entity
	bestD := math.Inf(1)
	for _, e := range r.entities {
		if e.DeadFlag || (keep != nil && !keep(e)) {
			continue
		}
		if d := e.Position.Sub(pos).LenSq(); d < bestD {
			best, bestD = e, d
		}
	}
	return best
}
