package game

import (
	"math"
	"testing"

	"arena/internal/game/geom"
)

// TestLevelTable checks the cumulative curve
func TestLevelTable(t *testing.T) {
	table := NewLevelTable()
	if table[0] != 0 {
		t.Errorf("Level 0 should need no score, got %v", table[0])
	}
	if table[1] != 5 {
		t.Errorf("Level 1 should need 5, got %v", table[1])
	}
	for i := 1; i <= MaxLevel; i++ {
		if table[i] <= table[i-1] {
			t.Fatalf("Thresholds must increase: level %d %v <= %v", i, table[i], table[i-1])
		}
	}
}

// TestLevelFromScore tests interpolation and clamping
func TestLevelFromScore(t *testing.T) {
	table := NewLevelTable()
	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{"zero", 0, 0},
		{"negative", -10, 0},
		{"nan", math.NaN(), 0},
		{"half of first level", 2.5, 0.5},
		{"exactly level one", 5, 1},
		{"beyond table", table[MaxLevel] * 10, MaxLevel},
		{"top threshold", table[MaxLevel], MaxLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.LevelFromScore(tt.score); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LevelFromScore(%v) = %v, want %v", tt.score, got, tt.want)
			}
		})
	}
}

// TestSkillPointsFor tests points earned per level
func TestSkillPointsFor(t *testing.T) {
	tests := []struct {
		level float64
		want  int
	}{
		{0, 0},
		{1.7, 0},
		{2, 1},
		{30, 17},
		{60, MaxTotalSkillPoints},
	}
	for _, tt := range tests {
		if got := SkillPointsFor(tt.level); got != tt.want {
			t.Errorf("SkillPointsFor(%v) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

// TestProgressionKeepsHealthPercent verifies max health changes keep the ratio
func TestProgressionKeepsHealthPercent(t *testing.T) {
	table := NewLevelTable()
	p := NewPlayer(DefaultPlayer("erin", geom.V(0, 0)))
	table.applyProgression(p)
	p.Health = p.MaxHealth / 2

	p.Score = table[MaxLevel]
	table.applyProgression(p)

	if p.MaxHealth != FinalMaxHealth {
		t.Errorf("Expected max health %v at level 60, got %v", FinalMaxHealth, p.MaxHealth)
	}
	if ratio := p.Health / p.MaxHealth; math.Abs(ratio-0.5) > 1e-9 {
		t.Errorf("Expected health ratio 0.5, got %v", ratio)
	}
	if p.TargetRadius != PlayerFinalRadius {
		t.Errorf("Expected radius %v at level 60, got %v", PlayerFinalRadius, p.TargetRadius)
	}
}

// TestMovementFollowsInput verifies acceleration is input times speed
func TestMovementFollowsInput(t *testing.T) {
	table := NewLevelTable()
	p := NewPlayer(DefaultPlayer("finn", geom.V(0, 0)))
	p.MoveInput = geom.V(1, 0)
	table.applyProgression(p)
	if p.Acceleration.X != InitialMovementSpeed || p.Acceleration.Y != 0 {
		t.Errorf("Expected acceleration (%v, 0), got %+v", InitialMovementSpeed, p.Acceleration)
	}

	p.Kill()
	table.applyProgression(p)
	if p.Acceleration != (geom.Vec2{}) {
		t.Errorf("Dead player should not accelerate, got %+v", p.Acceleration)
	}
}

// TestSkillPointInvariant spends every point and checks the caps hold
func TestSkillPointInvariant(t *testing.T) {
	table := NewLevelTable()
	p := NewPlayer(DefaultPlayer("gina", geom.V(0, 0)))
	p.Score = table[MaxLevel]
	table.applyProgression(p)
	if p.SkillPointsAvailable != MaxTotalSkillPoints {
		t.Fatalf("Expected %d points at max level, got %d", MaxTotalSkillPoints, p.SkillPointsAvailable)
	}

	spent := 0
	for i := 0; i < 10; i++ {
		if UpgradeSkill(p, SkillMaxHealth) {
			spent++
		}
	}
	if spent != MaxPointsPerSkill {
		t.Errorf("Expected %d upgrades of one skill, got %d", MaxPointsPerSkill, spent)
	}

	for _, s := range AllSkills() {
		for UpgradeSkill(p, s) {
		}
		table.applyProgression(p)
	}

	if p.SkillPointsUsed != MaxTotalSkillPoints {
		t.Errorf("Expected %d points used, got %d", MaxTotalSkillPoints, p.SkillPointsUsed)
	}
	if p.SkillPointsUsed > SkillPointsFor(p.Level) {
		t.Errorf("Used %d points but level %v only grants %d", p.SkillPointsUsed, p.Level, SkillPointsFor(p.Level))
	}
	for _, s := range AllSkills() {
		if p.Skills[s].Level > MaxPointsPerSkill {
			t.Errorf("Skill %v over cap: %d", s, p.Skills[s].Level)
		}
	}
	if UpgradeSkill(p, SkillReload) {
		t.Error("Upgrade should fail with no points left")
	}
}

// TestUpgradeRequiresPoints verifies a fresh player cannot upgrade
func TestUpgradeRequiresPoints(t *testing.T) {
	p := NewPlayer(DefaultPlayer("hank", geom.V(0, 0)))
	if UpgradeSkill(p, SkillReload) {
		t.Error("Level 0 player should have no points to spend")
	}

	shape := NewShape(ShapeArchetypes[0], geom.V(0, 0), 0)
	shape.SkillPointsAvailable = 5
	if UpgradeSkill(shape, SkillReload) {
		t.Error("Shapes cannot upgrade skills")
	}
}
