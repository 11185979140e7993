package game

import (
	"math/rand"
	"testing"

	"arena/internal/game/geom"
)

// TestPlayerShoot tests firing, reload and recoil of the default cannon
func TestPlayerShoot(t *testing.T) {
	p := NewPlayer(DefaultPlayer("alice", geom.V(0, 0)))
	p.ID = "e1"
	rng := rand.New(rand.NewSource(1))

	p.Shooting = true
	if shots := p.Shoot(rng); len(shots) != 0 {
		t.Fatalf("Cannon fired before reloading: %d shots", len(shots))
	}

	p.Cannons[0].Timer = 1
	shots := p.Shoot(rng)
	if len(shots) != 1 {
		t.Fatalf("Expected 1 shot, got %d", len(shots))
	}

	proj := shots[0]
	if proj.Kind != KindProjectile {
		t.Errorf("Expected projectile kind, got %v", proj.Kind)
	}
	if proj.OwnerID != "e1" {
		t.Errorf("Expected owner e1, got %q", proj.OwnerID)
	}
	if proj.ID != "" {
		t.Errorf("Projectile should not have an id before insertion, got %q", proj.ID)
	}
	if proj.Velocity.X <= 0 {
		t.Errorf("Projectile should travel along +X, velocity %+v", proj.Velocity)
	}
	if p.DeltaV.X >= 0 {
		t.Errorf("Recoil should push the shooter back, deltaV %+v", p.DeltaV)
	}
	if p.Cannons[0].Timer != 0 {
		t.Errorf("Timer should reset after firing, got %v", p.Cannons[0].Timer)
	}

	if again := p.Shoot(rng); len(again) != 0 {
		t.Error("Cannon fired twice without reloading")
	}
}

// TestShotOwnerInheritance verifies projectiles of owned shooters keep the root owner
func TestShotOwnerInheritance(t *testing.T) {
	e := NewEntity(EntitySpec{
		Kind:       KindProjectile,
		OwnerID:    "e7",
		BaseRadius: 10,
		Radius:     10,
		MaxHealth:  1,
		Cannons:    []CannonSpec{{Length: 20, Width: 5, ShootSpeed: 100, Interval: 0.1, Projectile: DefaultProjectile()}},
	})
	e.ID = "e9"
	e.Shooting = true
	e.Cannons[0].Timer = 1

	shots := e.Shoot(rand.New(rand.NewSource(1)))
	if len(shots) != 1 || shots[0].OwnerID != "e7" {
		t.Fatalf("Expected one shot owned by e7, got %+v", shots)
	}
}

// TestSecondaryTrigger verifies cannons only fire on their own trigger
func TestSecondaryTrigger(t *testing.T) {
	spec := DefaultPlayer("bob", geom.V(0, 0))
	second := spec.Cannons[0]
	second.Secondary = true
	second.Rotation = 3.14
	spec.Cannons = append(spec.Cannons, second)

	tests := []struct {
		name      string
		primary   bool
		secondary bool
		want      int
	}{
		{"none", false, false, 0},
		{"primary", true, false, 1},
		{"secondary", false, true, 1},
		{"both", true, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer(spec)
			p.ID = "e1"
			for _, c := range p.Cannons {
				c.Timer = 1
			}
			p.Shooting = tt.primary
			p.ShootingSecondary = tt.secondary
			if got := len(p.Shoot(rand.New(rand.NewSource(1)))); got != tt.want {
				t.Errorf("Expected %d shots, got %d", tt.want, got)
			}
		})
	}
}

// TestDeadEntitiesDoNotShoot verifies dying players stop firing
func TestDeadEntitiesDoNotShoot(t *testing.T) {
	p := NewPlayer(DefaultPlayer("carol", geom.V(0, 0)))
	p.ID = "e1"
	p.Cannons[0].Timer = 1
	p.Shooting = true
	p.Kill()

	if shots := p.Shoot(rand.New(rand.NewSource(1))); len(shots) != 0 {
		t.Errorf("Dead player fired %d shots", len(shots))
	}
}

// TestReloadSkillShortensInterval verifies the reload skill
func TestReloadSkillShortensInterval(t *testing.T) {
	p := NewPlayer(DefaultPlayer("dave", geom.V(0, 0)))
	p.ID = "e1"
	p.Shooting = true
	p.Skills[SkillReload].Level = MaxPointsPerSkill
	p.Skills.Recompute()

	// Full reload halves the 0.5s interval.
	p.Cannons[0].Timer = 0.3
	if shots := p.Shoot(rand.New(rand.NewSource(1))); len(shots) != 1 {
		t.Errorf("Expected reload skill to allow firing at 0.3s, got %d shots", len(shots))
	}
}
