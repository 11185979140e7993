package game

import (
	"encoding/json"
	"testing"

	"arena/internal/game/geom"
)

// TestAddEntityAssignsIDs verifies sequential "e<N>" ids
func TestAddEntityAssignsIDs(t *testing.T) {
	r := newTestRoom()
	a := addBody(r, KindShape, 0, 0, 10, 1, 0)
	b := addBody(r, KindShape, 100, 0, 10, 1, 0)

	if a.ID != "e1" || b.ID != "e2" {
		t.Errorf("Expected e1, e2; got %s, %s", a.ID, b.ID)
	}
	if r.Len() != 2 || r.Shapes() != 2 {
		t.Errorf("Expected 2 entities and 2 shapes, got %d and %d", r.Len(), r.Shapes())
	}

	r.RemoveEntity(a.ID)
	r.RemoveEntity("missing")
	if _, ok := r.Entity(a.ID); ok {
		t.Error("Removed entity still indexed")
	}
	if r.Len() != 1 || r.Shapes() != 1 {
		t.Errorf("Expected 1 entity left, got %d (shapes %d)", r.Len(), r.Shapes())
	}
}

// TestJoinAndRespawn tests session join, re-join and respawn
func TestJoinAndRespawn(t *testing.T) {
	r := newTestRoom()
	p := r.Join("p1", "kim")
	if p.Kind != KindPlayer || p.Name != "kim" {
		t.Fatalf("Unexpected player: %+v", p)
	}
	if p.ID == "p1" {
		t.Error("Entity id must differ from session id")
	}

	if again := r.Join("p1", "kim"); again != p {
		t.Error("Re-joining while alive should keep the same player")
	}

	p.Kill()
	fresh := r.Join("p1", "kim")
	if fresh == p || fresh.DeadFlag {
		t.Error("Re-joining while dead should spawn a fresh player")
	}
	if got, _ := r.Player("p1"); got != fresh {
		t.Error("Session should control the fresh player")
	}
	if r.Sessions() != 1 {
		t.Errorf("Expected 1 session, got %d", r.Sessions())
	}
}

// TestLeaveKillsPlayer verifies the player fades out after its session leaves
func TestLeaveKillsPlayer(t *testing.T) {
	r := newTestRoom()
	p := r.Join("p1", "lee")
	r.Leave("p1")

	if !p.DeadFlag {
		t.Error("Player should be dying after leave")
	}
	if _, ok := r.Player("p1"); ok {
		t.Error("Session should no longer control a player")
	}

	for i := 0; i < 60; i++ {
		r.Update(1.0 / 60)
	}
	if _, ok := r.Entity(p.ID); ok {
		t.Error("Player should be removed after fading")
	}
}

// TestShapePopulation verifies the room tops up toward its target
func TestShapePopulation(t *testing.T) {
	r := NewRoom(RoomConfig{ID: "shapes", Size: 2048, CellSize: 512, ShapeTarget: 10, ShapeSpawnsPerTick: 2, Seed: 7, Authoritative: true})

	rep := r.Update(1.0 / 60)
	if rep.Spawned != 2 || r.Shapes() != 2 {
		t.Fatalf("Expected 2 shapes after one tick, got spawned=%d shapes=%d", rep.Spawned, r.Shapes())
	}
	for i := 0; i < 20; i++ {
		r.Update(1.0 / 60)
	}
	if r.Shapes() != 10 {
		t.Errorf("Expected population capped at 10, got %d", r.Shapes())
	}
}

// TestShootingSpawnsProjectiles verifies held fire produces owned projectiles
func TestShootingSpawnsProjectiles(t *testing.T) {
	r := newTestRoom()
	p := r.Join("p1", "max")
	r.ApplyInput("p1", InputPatch{PrimaryFire: flag(true)})

	for i := 0; i < 60; i++ {
		r.Update(1.0 / 60)
	}

	shots := 0
	for _, e := range r.Entities() {
		if e.Kind == KindProjectile {
			shots++
			if e.OwnerID != p.ID {
				t.Errorf("Projectile owner %q, want %q", e.OwnerID, p.ID)
			}
		}
	}
	if shots == 0 {
		t.Error("Expected at least one projectile after a second of fire")
	}
	if p.DeadFlag {
		t.Error("Own projectiles must not hurt the shooter")
	}
}

// TestRemovedEntitiesAreSwept verifies faded entities leave the room
func TestRemovedEntitiesAreSwept(t *testing.T) {
	r := newTestRoom()
	e := addBody(r, KindShape, 0, 0, 10, 1, 0)
	e.Kill()

	removed := 0
	for i := 0; i < 30; i++ {
		removed += r.Update(1.0 / 60).Removed
	}
	if removed != 1 || r.Len() != 0 || r.Shapes() != 0 {
		t.Errorf("Expected the shape swept, removed=%d len=%d shapes=%d", removed, r.Len(), r.Shapes())
	}
}

// TestRoomDeterminism verifies two rooms with one seed evolve identically
func TestRoomDeterminism(t *testing.T) {
	run := func() []geom.Vec2 {
		r := NewRoom(RoomConfig{ID: "det", Size: 2048, CellSize: 512, ShapeTarget: 20, ShapeSpawnsPerTick: 3, Seed: 42, Authoritative: true})
		r.Join("p1", "a")
		r.ApplyInput("p1", InputPatch{MoveX: f64(1), MoveY: f64(0.5), PrimaryFire: flag(true)})
		for i := 0; i < 120; i++ {
			r.Update(1.0 / 60)
		}
		var out []geom.Vec2
		for _, e := range r.Entities() {
			out = append(out, e.Position)
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("Entity counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Entity %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// TestUnknownSessionIsNoop verifies stale references are ignored
func TestUnknownSessionIsNoop(t *testing.T) {
	r := newTestRoom()
	r.ApplyInput("ghost", InputPatch{MoveX: f64(1)})
	r.Leave("ghost")
	if r.UpgradeSkill("ghost", SkillReload) {
		t.Error("Unknown session should not upgrade")
	}
	if r.Resize("ghost", 100, 100) {
		t.Error("Unknown session should not resize")
	}
}

// TestMirrorFollowsServer feeds server updates into a predictive mirror
func TestMirrorFollowsServer(t *testing.T) {
	server := newTestRoom()
	p := server.Join("p1", "nia")
	p.Position = geom.V(0, 0)
	addBody(server, KindShape, 60, 0, 8, 1, 0)
	server.Update(1.0 / 60)

	// Round-trip through JSON as a client would receive it.
	data, err := json.Marshal(server.StateFor("p1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var updates []EntityUpdate
	if err := json.Unmarshal(data, &updates); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	mirror := NewRoom(RoomConfig{ID: "mirror", Size: server.Size(), CellSize: 512})
	mirror.ApplyState(updates)
	if mirror.Len() != 2 {
		t.Fatalf("Expected 2 mirrored entities, got %d", mirror.Len())
	}
	mp, ok := mirror.Entity(p.ID)
	if !ok || !mp.Predictive || mp.Kind != KindPlayer {
		t.Fatalf("Mirror lost the player: %+v", mp)
	}

	p.Position = geom.V(10, 0)
	server.Update(1.0 / 60)
	data, _ = json.Marshal(server.StateFor("p1"))
	updates = nil
	if err := json.Unmarshal(data, &updates); err != nil {
		t.Fatalf("unmarshal partial: %v", err)
	}
	if u, _ := findUpdate(updates, p.ID); u.Partial == nil {
		t.Fatal("Second update should be partial")
	}
	mirror.ApplyState(updates)
	if mp.PositionError.X <= 0 {
		t.Errorf("Expected positive position error toward the server, got %+v", mp.PositionError)
	}

	before := mp.Position.X
	mirror.Update(1.0 / 60)
	if mp.Position.X <= before {
		t.Error("Position error should be blended in")
	}
}
