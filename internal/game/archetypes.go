package game

import (
	"arena/internal/game/geom"
)

// PlayerSpec is the construction record for a player body.
type PlayerSpec struct {
	Name           string
	Position       geom.Vec2
	Sides          int // 0 draws a circle
	BaseRadius     float64
	LinearDrag     float64
	RotationalDrag float64
	LookForce      float64
	ContactDamage  float64
	Cannons        []CannonSpec
}

// ShapeSpec is the construction record for a neutral shape.
type ShapeSpec struct {
	Archetype     string
	Sides         int
	BaseRadius    float64
	MaxHealth     float64
	ContactDamage float64
	Score         float64
	LinearDrag    float64
	PushForce     float64
	Mass          float64
	Weight        float64 // relative spawn frequency
}

// DefaultProjectile is the bullet fired by the default player cannon.
func DefaultProjectile() ProjectileSpec {
	return ProjectileSpec{
		BaseRadius:    8,
		MaxHealth:     1,
		ContactDamage: 3,
		LinearDrag:    0.2,
		Mass:          0.5,
		PushForce:     1,
		Lifetime:      2,
	}
}

// DefaultPlayer is the player body every session spawns with.
func DefaultPlayer(name string, pos geom.Vec2) PlayerSpec {
	return PlayerSpec{
		Name:           name,
		Position:       pos,
		BaseRadius:     PlayerInitialRadius,
		LinearDrag:     10,
		RotationalDrag: 40,
		LookForce:      700,
		ContactDamage:  1,
		Cannons: []CannonSpec{{
			Length:     PlayerInitialRadius * 2,
			Width:      PlayerInitialRadius * 0.9,
			Spread:     0.1,
			ShootSpeed: 700,
			Recoil:     0.05,
			Interval:   0.5,
			Projectile: DefaultProjectile(),
		}},
	}
}

// ShapeArchetypes is the neutral shape table, smallest first.
var ShapeArchetypes = []ShapeSpec{
	{Archetype: "triangle", Sides: 3, BaseRadius: 24, MaxHealth: 1, ContactDamage: 1, Score: 5, LinearDrag: 2, PushForce: 0.5, Mass: 0.5, Weight: 40},
	{Archetype: "square", Sides: 4, BaseRadius: 32, MaxHealth: 2, ContactDamage: 2, Score: 25, LinearDrag: 2, PushForce: 1, Mass: 0.75, Weight: 30},
	{Archetype: "pentagon", Sides: 5, BaseRadius: 40, MaxHealth: 4, ContactDamage: 3, Score: 150, LinearDrag: 2, PushForce: 1.5, Mass: 1, Weight: 18},
	{Archetype: "hexagon", Sides: 6, BaseRadius: 48, MaxHealth: 6, ContactDamage: 4, Score: 500, LinearDrag: 2, PushForce: 2, Mass: 1.25, Weight: 9},
	{Archetype: "septagon", Sides: 7, BaseRadius: 56, MaxHealth: 8, ContactDamage: 5, Score: 3000, LinearDrag: 2, PushForce: 2.5, Mass: 1.5, Weight: 3},
}

// NewPlayer builds a level-0 player body. Progression takes over its
// derived stats from the first tick.
func NewPlayer(spec PlayerSpec) *Entity {
	e := NewEntity(EntitySpec{
		Kind:             KindPlayer,
		Name:             spec.Name,
		Position:         spec.Position,
		LinearDrag:       spec.LinearDrag,
		RotationalDrag:   spec.RotationalDrag,
		LookForce:        spec.LookForce,
		BaseRadius:       spec.BaseRadius,
		TargetRadius:     PlayerInitialRadius,
		Radius:           PlayerInitialRadius,
		GrowIn:           true,
		Points:           geom.RegularPolygon(spec.Sides, spec.BaseRadius),
		MaxHealth:        InitialMaxHealth,
		ContactDamage:    spec.ContactDamage,
		HealthRegenSpeed: 0.1,
		HealthRegenDelay: 20,
		Mass:             InitialPlayerMass,
		PushForce:        InitialPlayerPush,
		FadeLength:       ServerFadeLength,
		Cannons:          spec.Cannons,
	})
	e.MovementSpeed = InitialMovementSpeed
	return e
}

// NewShape builds a neutral shape that grows in from nothing.
func NewShape(spec ShapeSpec, pos geom.Vec2, rotation float64) *Entity {
	return NewEntity(EntitySpec{
		Kind:             KindShape,
		Name:             "",
		Position:         pos,
		Rotation:         rotation,
		LinearDrag:       spec.LinearDrag,
		RotationalDrag:   1,
		BaseRadius:       spec.BaseRadius,
		TargetRadius:     spec.BaseRadius,
		GrowIn:           true,
		Points:           geom.RegularPolygon(spec.Sides, spec.BaseRadius),
		MaxHealth:        spec.MaxHealth,
		ContactDamage:    spec.ContactDamage,
		HealthRegenSpeed: 1,
		HealthRegenDelay: 10,
		Mass:             spec.Mass,
		PushForce:        spec.PushForce,
		Score:            spec.Score,
		FadeLength:       ServerFadeLength,
	})
}
