package game

import (
	"math"

	"arena/internal/game/geom"
)

// Collision tuning.
const (
	PushStrength          = 80.0
	BodyDamageContactGain = 10.0 // contact damage multiplier per bodyDmg completion
	BodyDamagePushLoss    = 2.0  // push divisor per bodyDmg completion
)

// Rules are room-level combat switches.
type Rules struct {
	// ShapeShapeDamage lets neutral shapes hurt each other on contact.
	// Off by default: shapes only push one another apart.
	ShapeShapeDamage bool
}

// KillEvent describes one death caused by contact during a tick.
type KillEvent struct {
	VictimID   string  `json:"victimID"`
	VictimKind Kind    `json:"victimKind"`
	VictimName string  `json:"victimName,omitempty"`
	KillerID   string  `json:"killerID"`
	AwardeeID  string  `json:"awardeeID,omitempty"` // entity that received the score
	Score      float64 `json:"score"`
}

// pairKey identifies an unordered entity pair within one tick.
type pairKey struct {
	a, b string
}

func makePairKey(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// ownerExempt reports whether a and b belong to the same owner and must not
// interact: an entity and its owner, or two entities sharing an owner.
func ownerExempt(a, b *Entity) bool {
	if a.OwnerID != "" && (a.OwnerID == b.ID || a.OwnerID == b.OwnerID) {
		return true
	}
	return b.OwnerID != "" && b.OwnerID == a.ID
}

// Overlapping runs the narrow phase for a candidate pair. Dead bodies never
// overlap anything, even before their next update clears CanCollide.
func Overlapping(a, b *Entity) bool {
	if a == b || !a.CanCollide || !b.CanCollide || a.DeadFlag || b.DeadFlag {
		return false
	}
	if ownerExempt(a, b) {
		return false
	}
	reach := a.Radius + b.Radius
	dx := b.Position.X - a.Position.X
	dy := b.Position.Y - a.Position.Y
	if math.Abs(dx) > reach || math.Abs(dy) > reach {
		return false
	}
	return dx*dx+dy*dy <= reach*reach
}

// contactRate is the damage per second self inflicts on other.
func contactRate(self, other *Entity) float64 {
	rate := self.ContactDamage
	if self.Kind == KindPlayer && other.Kind != KindProjectile {
		rate *= 1 + BodyDamageContactGain*self.Skills.Completion(SkillBodyDamage)
	}
	if !geom.IsFinite(rate) || rate < 0 {
		return 0
	}
	return rate
}

// pushOf is the force an entity exerts on what it touches.
func pushOf(e *Entity) float64 {
	if e.Kind == KindPlayer {
		return e.PushForce / (1 + BodyDamagePushLoss*e.Skills.Completion(SkillBodyDamage))
	}
	return e.PushForce
}

// exchangeDamage applies one tick of contact damage between a and b.
//
// When both sides would die this tick, the side that dies sooner takes its
// full damage and the other side only takes what the sooner side could deal
// before dying. Equal times kill both.
func exchangeDamage(a, b *Entity, dt float64) {
	rateA := contactRate(a, b) // dealt by a to b
	rateB := contactRate(b, a)
	takenA := rateB * dt
	takenB := rateA * dt

	if rateA > 0 && rateB > 0 && takenA >= a.Health && takenB >= b.Health {
		ttkA := a.Health / rateB
		ttkB := b.Health / rateA
		switch {
		case ttkA < ttkB:
			a.Damage(takenA)
			b.Damage(rateA * ttkA)
			return
		case ttkB < ttkA:
			b.Damage(takenB)
			a.Damage(rateB * ttkB)
			return
		}
	}
	a.Damage(takenA)
	b.Damage(takenB)
}

// pushApart separates two overlapping bodies along the line between their
// centres, scaled by penetration depth.
func pushApart(a, b *Entity, dt float64) {
	delta := b.Position.Sub(a.Position)
	d := delta.Len()
	n := geom.V(1, 0)
	if d > 0 {
		n = delta.Scale(1 / d)
	}
	pen := a.Radius + b.Radius - d
	if pen <= 0 {
		return
	}
	massA, massB := a.Mass, b.Mass
	if massA <= 0 {
		massA = 1
	}
	if massB <= 0 {
		massB = 1
	}
	b.Velocity = b.Velocity.Add(n.Scale(pen * PushStrength * pushOf(a) / massB * dt))
	a.Velocity = a.Velocity.Sub(n.Scale(pen * PushStrength * pushOf(b) / massA * dt))
}

// collide rebuilds the broad phase and resolves every overlapping pair once.
func (r *Room) collide(dt float64, rep *TickReport) {
	r.grid.Clear()
	for i, e := range r.entities {
		r.grid.InsertCircle(uint32(i), e.Position.X, e.Position.Y, e.Radius)
	}

	clear(r.resolved)
	r.grid.ForEachPair(func(i, j uint32) {
		if i > j {
			i, j = j, i
		}
		a, b := r.entities[i], r.entities[j]
		if !Overlapping(a, b) {
			return
		}
		key := makePairKey(a.ID, b.ID)
		if _, done := r.resolved[key]; done {
			return
		}
		r.resolved[key] = struct{}{}
		rep.Collisions++
		r.resolve(a, b, dt, rep)
	})
}

// resolve applies damage, score and push for one overlapping pair.
func (r *Room) resolve(a, b *Entity, dt float64, rep *TickReport) {
	if r.cfg.Authoritative && !a.DeadFlag && !b.DeadFlag {
		shapes := a.Kind == KindShape && b.Kind == KindShape
		if !shapes || r.cfg.Rules.ShapeShapeDamage {
			exchangeDamage(a, b, dt)
			r.settleKills(a, b, rep)
		}
	}
	pushApart(a, b, dt)
}

// settleKills hands out score after a damage exchange.
func (r *Room) settleKills(a, b *Entity, rep *TickReport) {
	switch {
	case a.DeadFlag && b.DeadFlag:
		r.creditOwner(a, b, rep)
		r.creditOwner(b, a, rep)
	case b.DeadFlag:
		r.awardKill(a, b, rep)
	case a.DeadFlag:
		r.awardKill(b, a, rep)
	}
}

// awardee returns who profits from killer's kills: its owner if that owner
// is still in the room, otherwise killer itself.
func (r *Room) awardee(killer *Entity) *Entity {
	if killer.OwnerID != "" {
		if owner, ok := r.byID[killer.OwnerID]; ok {
			return owner
		}
	}
	return killer
}

func transferOf(victim *Entity) float64 {
	if victim.Kind == KindPlayer {
		return victim.Score * PlayerScoreTransferFactor
	}
	return victim.Score
}

func (r *Room) awardKill(killer, victim *Entity, rep *TickReport) {
	ev := KillEvent{
		VictimID:   victim.ID,
		VictimKind: victim.Kind,
		VictimName: victim.Name,
		KillerID:   killer.ID,
	}
	if to := r.awardee(killer); to.Kind == KindPlayer {
		ev.AwardeeID = to.ID
		ev.Score = transferOf(victim)
		to.Score += ev.Score
	}
	rep.Kills = append(rep.Kills, ev)
}

// creditOwner settles one side of a simultaneous death. Only an owner still
// in the room profits, and only from shapes.
func (r *Room) creditOwner(killer, victim *Entity, rep *TickReport) {
	ev := KillEvent{
		VictimID:   victim.ID,
		VictimKind: victim.Kind,
		VictimName: victim.Name,
		KillerID:   killer.ID,
	}
	if victim.Kind == KindShape && killer.OwnerID != "" {
		if owner, ok := r.byID[killer.OwnerID]; ok && owner.Kind == KindPlayer {
			ev.AwardeeID = owner.ID
			ev.Score = transferOf(victim)
			owner.Score += ev.Score
		}
	}
	rep.Kills = append(rep.Kills, ev)
}
