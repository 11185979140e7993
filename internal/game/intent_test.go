package game

import (
	"math"
	"testing"

	"arena/internal/game/geom"
)

func f64(v float64) *float64 { return &v }
func flag(v bool) *bool { return &v }

// TestInputPatchIsEmpty verifies only an all-nil patch is empty
func TestInputPatchIsEmpty(t *testing.T) {
	if !(InputPatch{}).IsEmpty() {
		t.Error("Zero patch should be empty")
	}
	if (InputPatch{SecondaryFire: flag(false)}).IsEmpty() {
		t.Error("A present false field is still a change")
	}
}

// TestApplyInput tests intake normalization
func TestApplyInput(t *testing.T) {
	tests := []struct {
		name  string
		patch InputPatch
		want  geom.Vec2
	}{
		{"long vector normalized", InputPatch{MoveX: f64(3), MoveY: f64(4)}, geom.V(0.6, 0.8)},
		{"zero stays zero", InputPatch{MoveX: f64(0), MoveY: f64(0)}, geom.V(0, 0)},
		{"nan becomes zero", InputPatch{MoveX: f64(math.NaN()), MoveY: f64(2)}, geom.V(0, 1)},
		{"inf becomes zero", InputPatch{MoveX: f64(math.Inf(-1)), MoveY: f64(0)}, geom.V(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewPlayer(DefaultPlayer("ivy", geom.V(0, 0)))
			ApplyInput(e, tt.patch)
			if math.Abs(e.MoveInput.X-tt.want.X) > 1e-9 || math.Abs(e.MoveInput.Y-tt.want.Y) > 1e-9 {
				t.Errorf("Expected move %+v, got %+v", tt.want, e.MoveInput)
			}
		})
	}
}

// TestApplyInputSparse verifies absent fields keep their previous values
func TestApplyInputSparse(t *testing.T) {
	e := NewPlayer(DefaultPlayer("jo", geom.V(0, 0)))
	ApplyInput(e, InputPatch{MoveX: f64(1), MoveY: f64(0), MouseWorldX: f64(10), MouseWorldY: f64(20), PrimaryFire: flag(true)})
	ApplyInput(e, InputPatch{MoveY: f64(1)})

	want := geom.V(1, 1).Normalize()
	if math.Abs(e.MoveInput.X-want.X) > 1e-9 || math.Abs(e.MoveInput.Y-want.Y) > 1e-9 {
		t.Errorf("Expected merged move %+v, got %+v", want, e.MoveInput)
	}
	if e.LookTarget != geom.V(10, 20) {
		t.Errorf("Look target should survive sparse patch, got %+v", e.LookTarget)
	}
	if !e.Shooting {
		t.Error("Fire flag should survive sparse patch")
	}

	ApplyInput(e, InputPatch{PrimaryFire: flag(false), MouseWorldX: f64(math.Inf(1))})
	if e.Shooting {
		t.Error("Fire flag should be released")
	}
	if e.LookTarget.X != 0 {
		t.Errorf("Non-finite mouse position should be zeroed, got %v", e.LookTarget.X)
	}
}
