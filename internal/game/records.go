package game

import (
	"encoding/json"
	"fmt"

	"arena/internal/game/geom"
)

// FullRecord carries everything a viewer needs to construct an entity.
type FullRecord struct {
	Full    bool   `json:"full"` // always true; lets decoders tell records apart
	ID      string `json:"id"`
	OwnerID string `json:"owner,omitempty"`
	Name    string `json:"name,omitempty"`
	Kind    Kind   `json:"type"`

	Score    float64 `json:"score"`
	Level    float64 `json:"level"`
	Lifetime float64 `json:"lifetime,omitempty"`

	Position               geom.Vec2 `json:"position"`
	Velocity               geom.Vec2 `json:"velocity"`
	Acceleration           geom.Vec2 `json:"acceleration"`
	LinearDrag             float64   `json:"linearDrag"`
	Rotation               float64   `json:"rotation"`
	RotationalVelocity     float64   `json:"rotationalVelocity"`
	RotationalAcceleration float64   `json:"rotationalAcceleration"`
	RotationalDrag         float64   `json:"rotationalDrag"`
	LookTarget             geom.Vec2 `json:"lookTarget"`
	LookForce              float64   `json:"lookForce"`

	CanCollide   bool    `json:"canCollide"`
	BaseRadius   float64 `json:"baseRadius"`
	TargetRadius float64 `json:"targetRadius"`
	Radius       float64 `json:"radius"`
	GrowIn       bool    `json:"growIn"`
	PushForce    float64 `json:"pushForce"`
	Mass         float64 `json:"mass"`

	ContactDamage    float64 `json:"contactDamage"`
	MaxHealth        float64 `json:"maxHealth"`
	Health           float64 `json:"health"`
	HealthRegenSpeed float64 `json:"healthRegenSpeed"`
	HealthRegenDelay float64 `json:"healthRegenDelay"`
	DeadFlag         bool    `json:"deadFlag"`

	Points  []geom.Vec2    `json:"points,omitempty"`
	Cannons []CannonRecord `json:"cannons,omitempty"`
	Skills  Skills         `json:"skills"`
}

// CannonRecord is a cannon's construction record plus its live timer.
type CannonRecord struct {
	CannonSpec
	Timer float64 `json:"timer"`
}

// PartialRecord carries only the fields that change tick to tick.
type PartialRecord struct {
	ID           string        `json:"id"`
	Score        float64       `json:"score"`
	Level        float64       `json:"level"`
	Position     geom.Vec2     `json:"position"`
	Velocity     geom.Vec2     `json:"velocity"`
	Acceleration geom.Vec2     `json:"acceleration"`
	LookTarget   geom.Vec2     `json:"lookTarget"`
	Health       float64       `json:"health"`
	MaxHealth    float64       `json:"maxHealth"`
	DeadFlag     bool          `json:"deadFlag"`
	CannonData   []CannonTimer `json:"cannonData,omitempty"`
	Skills       Skills        `json:"skills"`
}

// CannonTimer is the per-tick cannon state.
type CannonTimer struct {
	Timer float64 `json:"timer"`
}

// FullRecord snapshots e for a viewer that has never seen it.
func (e *Entity) FullRecord() *FullRecord {
	r := &FullRecord{
		Full:                   true,
		ID:                     e.ID,
		OwnerID:                e.OwnerID,
		Name:                   e.Name,
		Kind:                   e.Kind,
		Score:                  e.Score,
		Level:                  e.Level,
		Lifetime:               e.Lifetime,
		Position:               e.Position,
		Velocity:               e.Velocity,
		Acceleration:           e.Acceleration,
		LinearDrag:             e.LinearDrag,
		Rotation:               e.Rotation,
		RotationalVelocity:     e.RotationalVelocity,
		RotationalAcceleration: e.RotationalAcceleration,
		RotationalDrag:         e.RotationalDrag,
		LookTarget:             e.LookTarget,
		LookForce:              e.LookForce,
		CanCollide:             e.CanCollide,
		BaseRadius:             e.BaseRadius,
		TargetRadius:           e.TargetRadius,
		Radius:                 e.Radius,
		GrowIn:                 e.GrowIn,
		PushForce:              e.PushForce,
		Mass:                   e.Mass,
		ContactDamage:          e.ContactDamage,
		MaxHealth:              e.MaxHealth,
		Health:                 e.Health,
		HealthRegenSpeed:       e.HealthRegenSpeed,
		HealthRegenDelay:       e.HealthRegenDelay,
		DeadFlag:               e.DeadFlag,
		Points:                 e.Points,
		Skills:                 e.Skills,
	}
	for _, c := range e.Cannons {
		r.Cannons = append(r.Cannons, CannonRecord{CannonSpec: c.CannonSpec, Timer: c.Timer})
	}
	return r
}

// PartialRecord snapshots the frequently changing fields of e.
func (e *Entity) PartialRecord() *PartialRecord {
	r := &PartialRecord{
		ID:           e.ID,
		Score:        e.Score,
		Level:        e.Level,
		Position:     e.Position,
		Velocity:     e.Velocity,
		Acceleration: e.Acceleration,
		LookTarget:   e.LookTarget,
		Health:       e.Health,
		MaxHealth:    e.MaxHealth,
		DeadFlag:     e.DeadFlag,
		Skills:       e.Skills,
	}
	for _, c := range e.Cannons {
		r.CannonData = append(r.CannonData, CannonTimer{Timer: c.Timer})
	}
	return r
}

// NewMirrorEntity builds a predictive client-side entity from a full record.
func NewMirrorEntity(r *FullRecord) *Entity {
	e := &Entity{
		ID:                     r.ID,
		OwnerID:                r.OwnerID,
		Name:                   r.Name,
		Kind:                   r.Kind,
		Score:                  r.Score,
		Level:                  r.Level,
		Position:               r.Position,
		Velocity:               r.Velocity,
		Acceleration:           r.Acceleration,
		LinearDrag:             r.LinearDrag,
		Rotation:               r.Rotation,
		RotationalVelocity:     r.RotationalVelocity,
		RotationalAcceleration: r.RotationalAcceleration,
		RotationalDrag:         r.RotationalDrag,
		LookTarget:             r.LookTarget,
		LookForce:              r.LookForce,
		CanCollide:             r.CanCollide,
		BaseRadius:             r.BaseRadius,
		TargetRadius:           r.TargetRadius,
		Radius:                 r.Radius,
		GrowIn:                 r.GrowIn,
		PushForce:              r.PushForce,
		Mass:                   r.Mass,
		ContactDamage:          r.ContactDamage,
		MaxHealth:              r.MaxHealth,
		Health:                 r.Health,
		HealthRegenSpeed:       r.HealthRegenSpeed,
		HealthRegenDelay:       r.HealthRegenDelay,
		DeadFlag:               r.DeadFlag,
		Points:                 r.Points,
		Skills:                 r.Skills,
		FadeLength:             ClientFadeLength,
		LevelDamageFactor:      1,
		Predictive:             true,
	}
	for _, cr := range r.Cannons {
		c := NewCannon(cr.CannonSpec)
		c.Timer = cr.Timer
		e.Cannons = append(e.Cannons, c)
	}
	e.sanitize()
	return e
}

// Reconcile applies an authoritative partial record to a predictive entity.
// Position differences are stored as PositionError and blended in over the
// next ticks instead of snapping.
func (e *Entity) Reconcile(r *PartialRecord) {
	e.sinceServerUpdate = 0
	e.PositionError = r.Position.Sub(e.Position)
	e.Velocity = r.Velocity
	e.Acceleration = r.Acceleration
	e.LookTarget = r.LookTarget
	e.Score = r.Score
	e.Level = r.Level
	e.Health = r.Health
	e.MaxHealth = r.MaxHealth
	e.DeadFlag = r.DeadFlag
	e.Skills = r.Skills
	for i, ct := range r.CannonData {
		if i < len(e.Cannons) {
			e.Cannons[i].Timer = ct.Timer
		}
	}
	e.sanitize()
	e.PositionError = e.PositionError.Sanitize()
}

// EntityUpdate is one element of a state update: an entity ID plus either a
// full or a partial record. It encodes as a two-element JSON array.
type EntityUpdate struct {
	ID      string
	Full    *FullRecord
	Partial *PartialRecord
}

// MarshalJSON encodes the update as [id, record].
func (u EntityUpdate) MarshalJSON() ([]byte, error) {
	var payload any
	switch {
	case u.Full != nil:
		payload = u.Full
	case u.Partial != nil:
		payload = u.Partial
	default:
		return nil, fmt.Errorf("entity update %q has no record", u.ID)
	}
	return json.Marshal([2]any{u.ID, payload})
}

// UnmarshalJSON decodes [id, record], choosing the record type from its
// "full" flag.
func (u *EntityUpdate) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("entity update: %w", err)
	}
	if err := json.Unmarshal(pair[0], &u.ID); err != nil {
		return fmt.Errorf("entity update id: %w", err)
	}

	var probe struct {
		Full bool `json:"full"`
	}
	if err := json.Unmarshal(pair[1], &probe); err != nil {
		return fmt.Errorf("entity update %q: %w", u.ID, err)
	}
	if probe.Full {
		u.Full = &FullRecord{}
		return json.Unmarshal(pair[1], u.Full)
	}
	u.Partial = &PartialRecord{}
	return json.Unmarshal(pair[1], u.Partial)
}
