package game

import (
	"math"
	"math/rand"
)

// pickShape chooses an archetype with probability proportional to Weight.
func pickShape(rng *rand.Rand, table []ShapeSpec) (ShapeSpec, bool) {
	total := 0.0
	for _, s := range table {
		if s.Weight > 0 {
			total += s.Weight
		}
	}
	if total <= 0 {
		return ShapeSpec{}, false
	}
	roll := rng.Float64() * total
	for _, s := range table {
		if s.Weight <= 0 {
			continue
		}
		if roll < s.Weight {
			return s, true
		}
		roll -= s.Weight
	}
	return table[len(table)-1], true
}

// spawnShapes tops the room up toward ShapeTarget, a few shapes per tick.
func (r *Room) spawnShapes() int {
	missing := r.cfg.ShapeTarget - r.shapes
	if missing <= 0 {
		return 0
	}
	n := min(missing, r.cfg.ShapeSpawnsPerTick)
	for i := 0; i < n; i++ {
		spec, ok := pickShape(r.rng, ShapeArchetypes)
		if !ok {
			return i
		}
		pos := r.randomPosition(spec.BaseRadius)
		r.AddEntity(NewShape(spec, pos, r.rng.Float64()*2*math.Pi))
	}
	return n
}
