package game

import (
	"arena/internal/game/geom"
)

// InputPatch is a sparse intent update. Nil fields leave the current state
// untouched; present fields overwrite it (last writer wins).
type InputPatch struct {
	MoveX         *float64 `json:"moveX,omitempty"`
	MoveY         *float64 `json:"moveY,omitempty"`
	MouseWorldX   *float64 `json:"mouseWorldX,omitempty"`
	MouseWorldY   *float64 `json:"mouseWorldY,omitempty"`
	PrimaryFire   *bool    `json:"primaryFire,omitempty"`
	SecondaryFire *bool    `json:"secondaryFire,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p InputPatch) IsEmpty() bool {
	return p.MoveX == nil && p.MoveY == nil &&
		p.MouseWorldX == nil && p.MouseWorldY == nil &&
		p.PrimaryFire == nil && p.SecondaryFire == nil
}

// ApplyInput merges a patch into the entity's persistent intent state.
// This is the intake boundary: non-finite numbers become 0 here and a
// non-zero movement vector is normalised to unit length, so clients cannot
// move faster by sending long vectors.
func ApplyInput(e *Entity, p InputPatch) {
	if p.MoveX != nil || p.MoveY != nil {
		move := e.MoveInput
		if p.MoveX != nil {
			move.X = geom.Sanitize(*p.MoveX)
		}
		if p.MoveY != nil {
			move.Y = geom.Sanitize(*p.MoveY)
		}
		e.MoveInput = move.Normalize()
	}
	if p.MouseWorldX != nil {
		e.LookTarget.X = geom.Sanitize(*p.MouseWorldX)
	}
	if p.MouseWorldY != nil {
		e.LookTarget.Y = geom.Sanitize(*p.MouseWorldY)
	}
	if p.PrimaryFire != nil {
		e.Shooting = *p.PrimaryFire
	}
	if p.SecondaryFire != nil {
		e.ShootingSecondary = *p.SecondaryFire
	}
	e.sanitize()
}
