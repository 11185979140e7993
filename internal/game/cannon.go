package game

import (
	"math/rand"

	"arena/internal/game/geom"
)

// ProjectileSpec is the construction record every shot of a cannon uses.
type ProjectileSpec struct {
	BaseRadius    float64     `json:"baseRadius"`
	MaxHealth     float64     `json:"maxHealth"`
	ContactDamage float64     `json:"contactDamage"`
	LinearDrag    float64     `json:"linearDrag"`
	Mass          float64     `json:"mass"`
	PushForce     float64     `json:"pushForce"`
	Lifetime      float64     `json:"lifetime"`
	Points        []geom.Vec2 `json:"points,omitempty"`
}

// CannonSpec is the construction record for one barrel.
type CannonSpec struct {
	Secondary  bool           `json:"secondary"`
	Position   geom.Vec2      `json:"position"` // relative to the owner's centre, world-aligned
	Offset     geom.Vec2      `json:"offset"`   // rotated with the fire direction
	Rotation   float64        `json:"rotation"` // relative to the owner's rotation
	Length     float64        `json:"length"`
	Width      float64        `json:"width"`
	Spread     float64        `json:"spread"` // total cone, radians
	ShootSpeed float64        `json:"shootSpeed"`
	Recoil     float64        `json:"recoil"`
	Interval   float64        `json:"interval"` // seconds between shots at reload factor 1
	Projectile ProjectileSpec `json:"projectile"`
}

// Cannon is a barrel mounted on an entity.
type Cannon struct {
	CannonSpec
	Points []geom.Vec2
	Timer  float64
	Scale  float64 // owner scale at the last shot, for rendering
}

// Shot is the result of a successful Cannon.Shoot.
type Shot struct {
	Projectile *Entity
	Recoil     geom.Vec2 // to be added to the firer's DeltaV
}

// NewCannon builds a cannon from its record.
func NewCannon(spec CannonSpec) *Cannon {
	return &Cannon{
		CannonSpec: spec,
		Points:     geom.Rect(spec.Length, spec.Width),
		Scale:      1,
	}
}

// Tick advances the fire timer.
func (c *Cannon) Tick(dt float64) {
	c.Timer += dt
}

// Ready reports whether the cannon may fire with the given reload factor.
func (c *Cannon) Ready(reloadFactor float64) bool {
	return c.Timer >= c.Interval*reloadFactor
}

// Shoot fires one projectile if the timer allows. The projectile is placed
// at the muzzle and has no ID yet.
func (c *Cannon) Shoot(origin geom.Vec2, originRot, scale, reloadFactor, speedFactor float64, rng *rand.Rand) (Shot, bool) {
	if !c.Ready(reloadFactor) {
		return Shot{}, false
	}
	c.Timer = 0
	c.Scale = scale

	spread := 0.0
	if c.Spread > 0 && rng != nil {
		spread = c.Spread*rng.Float64() - c.Spread/2
	}
	angle := originRot + c.Rotation + spread
	dir := geom.FromAngle(angle)

	ps := c.Projectile
	pos := origin.
		Add(c.Position).
		Add(dir.Scale(scale * (c.Length - ps.BaseRadius))).
		Add(c.Offset.Rotate(dir).Scale(scale))

	p := NewEntity(EntitySpec{
		Kind:             KindProjectile,
		Position:         pos,
		Velocity:         dir.Scale(c.ShootSpeed * speedFactor),
		Rotation:         angle,
		LinearDrag:       ps.LinearDrag,
		BaseRadius:       ps.BaseRadius,
		TargetRadius:     ps.BaseRadius * scale,
		Radius:           ps.BaseRadius * scale,
		GrowIn:           true,
		Points:           ps.Points,
		MaxHealth:        ps.MaxHealth,
		ContactDamage:    ps.ContactDamage,
		Mass:             ps.Mass,
		PushForce:        ps.PushForce,
		Lifetime:         ps.Lifetime,
		FadeLength:       ServerFadeLength,
	})

	return Shot{
		Projectile: p,
		Recoil:     dir.Scale(-c.Recoil * c.ShootSpeed),
	}, true
}
