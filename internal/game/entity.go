package game

import (
	"math"
	"math/rand"

	"arena/internal/game/geom"
)

// Kind is the archetype family of an entity.
type Kind uint8

const (
	KindUnspecified Kind = iota
	KindPlayer
	KindShape
	KindProjectile
)

// String returns human-readable kind
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindShape:
		return "shape"
	case KindProjectile:
		return "projectile"
	default:
		return "unspecified"
	}
}

// Physics and lifecycle tuning shared by every entity.
const (
	UpdateTimeout           = 1.0 // predictive entities die after this long without an authoritative update
	PositionCorrectionSpeed = 3.0
	BoundaryPushPower       = 600.0
	BoundaryPushDstFactor   = 0.25
	DeadPlayerZoomFactor    = 6.0
	RadiusChangeFactor      = 8.0
	DeltaVReleaseFactor     = 200.0 // larger releases recoil more slowly

	ServerFadeLength = 0.4
	ClientFadeLength = 0.12
)

// LifeState is derived from an entity's flags.
type LifeState uint8

const (
	Alive LifeState = iota
	Dying
	Removed
)

// Entity is the only simulated object. Players, shapes and projectiles
// differ only in their construction record and in how the room treats them.
//
// Health must only be lowered through Damage.
type Entity struct {
	ID      string
	OwnerID string // "" when unowned
	Kind    Kind
	Name    string

	Position      geom.Vec2
	PositionError geom.Vec2 // predictive mirrors only
	Velocity      geom.Vec2
	DeltaV        geom.Vec2 // recoil waiting to be released into Velocity
	Acceleration  geom.Vec2
	LinearDrag    float64

	Rotation               float64
	RotationalVelocity     float64
	RotationalAcceleration float64
	RotationalDrag         float64
	LookTarget             geom.Vec2
	LookForce              float64

	BaseRadius   float64
	TargetRadius float64
	Radius       float64
	GrowIn       bool
	Points       []geom.Vec2 // outline at BaseRadius; nil draws a circle
	deltaRadius  float64

	MaxHealth        float64
	Health           float64
	HealthRegenSpeed float64 // fraction of MaxHealth per second
	HealthRegenDelay float64 // seconds without damage before regen starts
	healthRegenTimer float64
	ContactDamage    float64 // damage per second of contact
	Mass             float64
	PushForce        float64
	CanCollide       bool

	DeadFlag   bool
	RemoveFlag bool
	FadeLength float64
	fadeTimer  float64
	Lifetime   float64 // seconds; 0 means unlimited
	lifeTimer  float64

	Score                float64
	Level                float64
	Skills               Skills
	SkillPointsAvailable int
	SkillPointsUsed      int
	MovementSpeed        float64
	LevelDamageFactor    float64
	MoveInput            geom.Vec2 // unit vector or zero

	Cannons           []*Cannon
	Shooting          bool
	ShootingSecondary bool

	// Predictive marks a client-side mirror entity: it applies PositionError
	// and expires if the server goes quiet.
	Predictive        bool
	sinceServerUpdate float64
}

// EntitySpec is the explicit construction record for NewEntity.
// Every field is used as given; nothing is filled in implicitly.
type EntitySpec struct {
	Kind    Kind
	Name    string
	OwnerID string

	Position geom.Vec2
	Velocity geom.Vec2
	Rotation float64

	LinearDrag     float64
	RotationalDrag float64
	LookForce      float64

	BaseRadius   float64
	TargetRadius float64
	Radius       float64 // initial radius; 0 grows in from nothing
	GrowIn       bool
	Points       []geom.Vec2

	MaxHealth        float64
	ContactDamage    float64
	HealthRegenSpeed float64
	HealthRegenDelay float64
	Mass             float64
	PushForce        float64

	Score      float64
	Lifetime   float64
	FadeLength float64

	Cannons []CannonSpec
}

// NewEntity builds an entity from its construction record. The ID is left
// empty; the room assigns one on insertion.
func NewEntity(spec EntitySpec) *Entity {
	e := &Entity{
		Kind:              spec.Kind,
		Name:              spec.Name,
		OwnerID:           spec.OwnerID,
		Position:          spec.Position.Sanitize(),
		Velocity:          spec.Velocity.Sanitize(),
		Rotation:          geom.WrapAngle(spec.Rotation),
		LinearDrag:        spec.LinearDrag,
		RotationalDrag:    spec.RotationalDrag,
		LookForce:         spec.LookForce,
		BaseRadius:        spec.BaseRadius,
		TargetRadius:      spec.TargetRadius,
		Radius:            spec.Radius,
		GrowIn:            spec.GrowIn,
		Points:            spec.Points,
		MaxHealth:         spec.MaxHealth,
		Health:            spec.MaxHealth,
		ContactDamage:     spec.ContactDamage,
		HealthRegenSpeed:  spec.HealthRegenSpeed,
		HealthRegenDelay:  spec.HealthRegenDelay,
		Mass:              spec.Mass,
		PushForce:         spec.PushForce,
		CanCollide:        true,
		Score:             spec.Score,
		Lifetime:          spec.Lifetime,
		lifeTimer:         spec.Lifetime,
		FadeLength:        spec.FadeLength,
		LevelDamageFactor: 1,
	}
	if e.TargetRadius == 0 {
		e.TargetRadius = e.BaseRadius
	}
	if e.Mass <= 0 {
		e.Mass = 1
	}
	// Look straight ahead until told otherwise.
	e.LookTarget = e.Position.Add(geom.FromAngle(e.Rotation))

	for _, cs := range spec.Cannons {
		e.Cannons = append(e.Cannons, NewCannon(cs))
	}
	return e
}

// State derives the lifecycle state from the flags.
func (e *Entity) State() LifeState {
	switch {
	case e.RemoveFlag:
		return Removed
	case e.DeadFlag:
		return Dying
	default:
		return Alive
	}
}

// Scale is the current visual scale relative to the archetype size.
func (e *Entity) Scale() float64 {
	if e.BaseRadius <= 0 {
		return 1
	}
	return e.Radius / e.BaseRadius
}

// Damage is the only sanctioned way to lower health. It resets the regen
// timer and flags the entity dead when health reaches zero.
func (e *Entity) Damage(amount float64) {
	if !geom.IsFinite(amount) || amount <= 0 {
		return
	}
	e.Health -= amount
	e.healthRegenTimer = 0
	if e.Health <= 0 {
		e.Health = 0
		e.DeadFlag = true
	}
}

// Kill forces the entity into its dying state.
func (e *Entity) Kill() {
	e.DeadFlag = true
}

// Update advances the entity by dt seconds inside a square room of the
// given edge length centred on the origin.
func (e *Entity) Update(dt, roomSize float64) {
	if !geom.IsFinite(dt) || dt < 0 {
		dt = 0
	}

	if e.Predictive {
		e.sinceServerUpdate += dt
		if e.sinceServerUpdate > UpdateTimeout {
			e.DeadFlag = true
		}
	} else if e.Lifetime > 0 && !e.DeadFlag {
		e.lifeTimer -= dt
		if e.lifeTimer <= 0 {
			e.DeadFlag = true
		}
	}

	// Recoil is released over several ticks.
	release := 1 / (1 + DeltaVReleaseFactor*dt)
	e.Velocity = e.Velocity.Add(e.DeltaV.Scale(release))
	e.DeltaV = e.DeltaV.Scale(1 - release)

	// Linear motion, half-step scheme.
	e.Position = e.Position.Add(e.Velocity.Scale(dt * 0.5))
	e.Velocity = e.Velocity.Add(e.Acceleration.Scale(dt))
	e.Velocity = e.Velocity.Scale(1 / (1 + e.LinearDrag*dt))
	e.Position = e.Position.Add(e.Velocity.Scale(dt * 0.5))

	if e.Predictive {
		f := math.Min(PositionCorrectionSpeed*dt, 1)
		e.Position = e.Position.Add(e.PositionError.Scale(f))
		e.PositionError = e.PositionError.Scale(1 - f)
	}

	// Rotation, same scheme.
	e.Rotation += e.RotationalVelocity * dt * 0.5
	e.RotationalVelocity += e.RotationalAcceleration * dt
	e.RotationalVelocity *= 1 / (1 + e.RotationalDrag*dt)
	e.Rotation += e.RotationalVelocity * dt * 0.5
	e.Rotation = geom.WrapAngle(e.Rotation)

	// Steering toward LookTarget.
	to := e.LookTarget.Sub(e.Position)
	if to.LenSq() > 0 {
		target := geom.NearestEquivalentAngle(math.Atan2(to.Y, to.X), e.Rotation)
		e.RotationalAcceleration = e.LookForce * (target - e.Rotation)
	} else {
		e.RotationalAcceleration = 0
	}

	for _, c := range e.Cannons {
		c.Tick(dt)
	}

	e.animateRadius(dt)

	if e.DeadFlag {
		e.Acceleration = geom.Vec2{}
		e.CanCollide = false
		e.fadeTimer += dt
		if e.fadeTimer > e.FadeLength {
			e.RemoveFlag = true
		}
	}

	if roomSize > 0 {
		e.pushFromBoundary(dt, roomSize/2)
	}

	if !e.DeadFlag {
		if e.healthRegenTimer < e.HealthRegenDelay {
			e.healthRegenTimer += dt
		} else {
			e.Health = math.Min(e.Health+e.HealthRegenSpeed*e.MaxHealth*dt, e.MaxHealth)
		}
	}

	e.Skills.Recompute()
}

// animateRadius moves Radius toward TargetRadius with a damped half-step
// that never overshoots.
func (e *Entity) animateRadius(dt float64) {
	if !e.GrowIn {
		e.Radius = e.TargetRadius
		e.deltaRadius = 0
		return
	}
	e.Radius += e.deltaRadius / 2
	gap := e.TargetRadius - e.Radius
	e.deltaRadius = RadiusChangeFactor * gap * dt
	if (e.deltaRadius > 0 && e.deltaRadius > gap) || (e.deltaRadius < 0 && e.deltaRadius < gap) {
		e.deltaRadius = gap
	}
	e.Radius += e.deltaRadius / 2
}

func (e *Entity) pushFromBoundary(dt, half float64) {
	push := func(depth float64) float64 {
		return BoundaryPushPower * math.Sqrt(BoundaryPushDstFactor*depth) * dt
	}
	if d := -half - (e.Position.X - e.Radius); d > 0 {
		e.Velocity.X += push(d)
	}
	if d := -half - (e.Position.Y - e.Radius); d > 0 {
		e.Velocity.Y += push(d)
	}
	if d := e.Position.X + e.Radius - half; d > 0 {
		e.Velocity.X -= push(d)
	}
	if d := e.Position.Y + e.Radius - half; d > 0 {
		e.Velocity.Y -= push(d)
	}
}

// Shoot fires every cannon whose trigger is held and whose timer allows it.
// Projectiles come back without IDs. Dead entities never shoot.
func (e *Entity) Shoot(rng *rand.Rand) []*Entity {
	if e.DeadFlag || (!e.Shooting && !e.ShootingSecondary) {
		return nil
	}

	owner := e.OwnerID
	if owner == "" {
		owner = e.ID
	}
	reloadFactor := 1 - 0.5*e.Skills.Completion(SkillReload)
	speedFactor := 1 + 1.5*e.Skills.Completion(SkillBulletSpeed)
	dmgFactor := e.LevelDamageFactor * (1 + 2*e.Skills.Completion(SkillBulletDamage))
	healthFactor := 1 + 2*e.Skills.Completion(SkillBulletHealth)

	var out []*Entity
	for _, c := range e.Cannons {
		if (c.Secondary && !e.ShootingSecondary) || (!c.Secondary && !e.Shooting) {
			continue
		}
		shot, ok := c.Shoot(e.Position, e.Rotation, e.Scale(), reloadFactor, speedFactor, rng)
		if !ok {
			continue
		}
		p := shot.Projectile
		p.OwnerID = owner
		p.ContactDamage *= dmgFactor
		p.MaxHealth *= healthFactor
		p.Health = p.MaxHealth
		e.DeltaV = e.DeltaV.Add(shot.Recoil)
		out = append(out, p)
	}
	return out
}

// sanitize clears non-finite kinematic state. Intake paths call it after
// applying untrusted values so the tick itself never sees NaN.
func (e *Entity) sanitize() {
	e.Position = e.Position.Sanitize()
	e.Velocity = e.Velocity.Sanitize()
	e.Acceleration = e.Acceleration.Sanitize()
	e.LookTarget = e.LookTarget.Sanitize()
	e.MoveInput = e.MoveInput.Sanitize()
	e.Rotation = geom.WrapAngle(e.Rotation)
}
