package game

import (
	"math"
	"testing"

	"arena/internal/game/geom"
)

func newTestBody(kind Kind, x, y, radius float64) *Entity {
	return NewEntity(EntitySpec{
		Kind:       kind,
		Position:   geom.V(x, y),
		BaseRadius: radius,
		Radius:     radius,
		MaxHealth:  10,
		Mass:       1,
		PushForce:  1,
		FadeLength: ServerFadeLength,
	})
}

// TestHealthNeverExceedsMax verifies regen clamps at MaxHealth
func TestHealthNeverExceedsMax(t *testing.T) {
	e := newTestBody(KindShape, 0, 0, 10)
	e.HealthRegenSpeed = 1
	e.HealthRegenDelay = 0
	e.Health = 9.99

	for i := 0; i < 10; i++ {
		e.Update(1, 0)
		if e.Health > e.MaxHealth {
			t.Fatalf("tick %d: health %v exceeds max %v", i, e.Health, e.MaxHealth)
		}
	}
	if e.Health != e.MaxHealth {
		t.Errorf("Expected health to regenerate to %v, got %v", e.MaxHealth, e.Health)
	}
}

// TestRegenWaitsForDelay verifies damage postpones regeneration
func TestRegenWaitsForDelay(t *testing.T) {
	e := newTestBody(KindShape, 0, 0, 10)
	e.HealthRegenSpeed = 1
	e.HealthRegenDelay = 5

	e.Damage(4)
	e.Update(1, 0)
	if e.Health != 6 {
		t.Errorf("Expected no regen during delay, health %v", e.Health)
	}
}

// TestDamage tests the damage entry point
func TestDamage(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		wantHealth float64
		wantDead   bool
	}{
		{"partial", 3, 7, false},
		{"exact", 10, 0, true},
		{"overkill", 50, 0, true},
		{"negative ignored", -5, 10, false},
		{"nan ignored", math.NaN(), 10, false},
		{"inf ignored", math.Inf(1), 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestBody(KindShape, 0, 0, 10)
			e.Damage(tt.amount)
			if e.Health != tt.wantHealth {
				t.Errorf("Expected health %v, got %v", tt.wantHealth, e.Health)
			}
			if e.DeadFlag != tt.wantDead {
				t.Errorf("Expected dead=%v, got %v", tt.wantDead, e.DeadFlag)
			}
		})
	}
}

// TestRotationStaysNormalized spins an entity hard and checks the range
func TestRotationStaysNormalized(t *testing.T) {
	e := newTestBody(KindShape, 0, 0, 10)
	e.RotationalVelocity = 1000

	for i := 0; i < 600; i++ {
		e.Update(1.0/60, 0)
		if e.Rotation <= -math.Pi || e.Rotation > math.Pi {
			t.Fatalf("tick %d: rotation %v out of (-pi, pi]", i, e.Rotation)
		}
	}
}

// TestDragIsStable verifies huge drag never flips or explodes velocity
func TestDragIsStable(t *testing.T) {
	drags := []float64{0, 1, 10, 1e3, 1e6}
	for _, drag := range drags {
		e := newTestBody(KindShape, 0, 0, 10)
		e.LinearDrag = drag
		e.Velocity = geom.V(1000, -500)

		prev := e.Velocity.Len()
		for i := 0; i < 30; i++ {
			e.Update(1, 0)
			if !e.Velocity.IsFinite() || !e.Position.IsFinite() {
				t.Fatalf("drag %v: non-finite state", drag)
			}
			if e.Velocity.X < 0 || e.Velocity.Y > 0 {
				t.Fatalf("drag %v: velocity changed sign: %+v", drag, e.Velocity)
			}
			if l := e.Velocity.Len(); l > prev+1e-9 {
				t.Fatalf("drag %v: speed grew from %v to %v", drag, prev, l)
			}
			prev = e.Velocity.Len()
		}
	}
}

// TestRecoilReleasedGradually verifies deltaV moves into velocity over ticks
func TestRecoilReleasedGradually(t *testing.T) {
	e := newTestBody(KindProjectile, 0, 0, 5)
	e.DeltaV = geom.V(100, 0)

	e.Update(1.0/60, 0)
	if e.Velocity.X <= 0 || e.Velocity.X >= 100 {
		t.Errorf("Expected partial release, velocity %v", e.Velocity.X)
	}
	if got := e.Velocity.X + e.DeltaV.X; math.Abs(got-100) > 1e-9 {
		t.Errorf("Recoil not conserved without drag: %v", got)
	}
}

// TestFadeThenRemove walks the alive -> dying -> removed lifecycle
func TestFadeThenRemove(t *testing.T) {
	e := newTestBody(KindShape, 0, 0, 10)
	e.Acceleration = geom.V(10, 0)
	if e.State() != Alive {
		t.Fatal("New entity should be alive")
	}

	e.Kill()
	e.Update(0.2, 0)
	if e.State() != Dying {
		t.Fatalf("Expected dying, got %v", e.State())
	}
	if e.CanCollide {
		t.Error("Dying entity should not collide")
	}
	if e.Acceleration != (geom.Vec2{}) {
		t.Error("Dying entity should have no acceleration")
	}

	e.Update(0.25, 0)
	if e.State() != Removed {
		t.Errorf("Expected removed after fade, got %v", e.State())
	}
}

// TestLifetimeExpires verifies projectiles die when their lifetime runs out
func TestLifetimeExpires(t *testing.T) {
	e := newTestBody(KindProjectile, 0, 0, 5)
	e.Lifetime = 2
	e.lifeTimer = 2

	e.Update(1.5, 0)
	if e.DeadFlag {
		t.Fatal("Projectile died before its lifetime")
	}
	e.Update(1, 0)
	if !e.DeadFlag {
		t.Error("Projectile should die after its lifetime")
	}
}

// TestPredictiveTimeout verifies a mirror dies without server updates
func TestPredictiveTimeout(t *testing.T) {
	e := newTestBody(KindShape, 0, 0, 10)
	e.Predictive = true

	e.Update(0.6, 0)
	if e.DeadFlag {
		t.Fatal("Mirror died too early")
	}
	e.Reconcile(e.PartialRecord())
	e.Update(0.6, 0)
	if e.DeadFlag {
		t.Fatal("Reconcile should reset the timeout")
	}
	e.Update(0.6, 0)
	if !e.DeadFlag {
		t.Error("Mirror should time out after a second of silence")
	}
}

// TestBoundaryPush verifies entities outside the walls are pushed back
func TestBoundaryPush(t *testing.T) {
	tests := []struct {
		name string
		pos  geom.Vec2
		sign geom.Vec2
	}{
		{"right", geom.V(1100, 0), geom.V(-1, 0)},
		{"left", geom.V(-1100, 0), geom.V(1, 0)},
		{"top", geom.V(0, -1100), geom.V(0, 1)},
		{"bottom", geom.V(0, 1100), geom.V(0, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestBody(KindShape, tt.pos.X, tt.pos.Y, 10)
			e.Update(1.0/60, 2048)
			if e.Velocity.Dot(tt.sign) <= 0 {
				t.Errorf("Expected push toward the centre, velocity %+v", e.Velocity)
			}
		})
	}

	inside := newTestBody(KindShape, 0, 0, 10)
	inside.Update(1.0/60, 2048)
	if inside.Velocity != (geom.Vec2{}) {
		t.Errorf("Entity inside the room should not be pushed: %+v", inside.Velocity)
	}
}

// TestRadiusGrowsWithoutOvershoot verifies grow-in animation
func TestRadiusGrowsWithoutOvershoot(t *testing.T) {
	e := NewEntity(EntitySpec{Kind: KindShape, BaseRadius: 10, GrowIn: true, MaxHealth: 1})
	if e.Radius != 0 {
		t.Fatalf("Expected grow-in from 0, got %v", e.Radius)
	}

	for i := 0; i < 50; i++ {
		e.Update(1, 0)
		if e.Radius > e.TargetRadius+1e-9 {
			t.Fatalf("tick %d: radius %v overshot %v", i, e.Radius, e.TargetRadius)
		}
	}
	if math.Abs(e.Radius-e.TargetRadius) > 1e-9 {
		t.Errorf("Expected radius to settle at %v, got %v", e.TargetRadius, e.Radius)
	}
}

// TestSteeringTowardLookTarget verifies rotation accelerates toward the target
func TestSteeringTowardLookTarget(t *testing.T) {
	e := newTestBody(KindPlayer, 0, 0, 10)
	e.LookForce = 700
	e.LookTarget = geom.V(0, 10)

	e.Update(1.0/60, 0)
	if e.RotationalAcceleration <= 0 {
		t.Errorf("Expected positive rotational acceleration, got %v", e.RotationalAcceleration)
	}
}
