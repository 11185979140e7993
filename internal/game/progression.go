package game

import "math"

// Level curve and level-0 / level-60 stat baselines.
const (
	MaxLevel = 60

	levelCurveA = 0.197740112994
	levelCurveB = 4.80225988701

	PlayerScoreTransferFactor = 0.25

	PlayerInitialRadius = 16.0
	PlayerFinalRadius   = 48.0

	InitialMovementSpeed = 2600.0
	FinalMovementSpeed   = 2300.0

	InitialMaxHealth = 2.5
	FinalMaxHealth   = 5.0

	InitialDamageFactor = 1.0
	FinalDamageFactor   = 1.25

	InitialPlayerMass = 1.0
	FinalPlayerMass   = 3.0

	InitialPlayerPush = 1.0
	FinalPlayerPush   = 3.0
)

// LevelTable holds the cumulative score needed for each level 0..MaxLevel.
type LevelTable [MaxLevel + 1]float64

var levelTable = NewLevelTable()

// NewLevelTable builds the cumulative thresholds. Each level costs
// A*i² + B*i more than the previous one; the running total is rounded.
func NewLevelTable() LevelTable {
	var t LevelTable
	running := 0.0
	for i := 0; i <= MaxLevel; i++ {
		fi := float64(i)
		running += levelCurveA*fi*fi + levelCurveB*fi
		t[i] = math.Round(running)
	}
	return t
}

// LevelFromScore returns a fractional level, interpolated linearly inside
// the bracketing span and clamped to MaxLevel.
func (t *LevelTable) LevelFromScore(score float64) float64 {
	if !(score > 0) {
		return 0
	}
	for i := 0; i < MaxLevel; i++ {
		if t[i+1] > score {
			lo, hi := t[i], t[i+1]
			return float64(i) + (score-lo)/(hi-lo)
		}
	}
	return MaxLevel
}

// SkillPointsFor returns how many points a player at level has earned in total.
func SkillPointsFor(level float64) int {
	return int(math.Floor(level * MaxTotalSkillPoints / MaxLevel))
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// applyProgression recomputes a player's level, skill points and derived
// stats from its score and skills. Health keeps its percentage when
// MaxHealth changes.
func (t *LevelTable) applyProgression(e *Entity) {
	e.Level = t.LevelFromScore(e.Score)
	e.SkillPointsAvailable = SkillPointsFor(e.Level) - e.SkillPointsUsed
	if e.SkillPointsAvailable < 0 {
		e.SkillPointsAvailable = 0
	}

	p := math.Floor(e.Level) / MaxLevel

	healthPercent := 1.0
	if e.MaxHealth > 0 {
		healthPercent = e.Health / e.MaxHealth
	}
	e.MaxHealth = lerp(InitialMaxHealth, FinalMaxHealth, p) * (1 + 5*e.Skills.Completion(SkillMaxHealth))
	e.Health = e.MaxHealth * healthPercent

	regen := e.Skills.Completion(SkillHealthRegen)
	e.HealthRegenDelay = 20 - 15*regen
	e.HealthRegenSpeed = 0.1 + 0.1*regen

	e.TargetRadius = lerp(PlayerInitialRadius, PlayerFinalRadius, p)
	e.MovementSpeed = lerp(InitialMovementSpeed, FinalMovementSpeed, p)
	e.LevelDamageFactor = lerp(InitialDamageFactor, FinalDamageFactor, p)
	e.Mass = lerp(InitialPlayerMass, FinalPlayerMass, p)
	e.PushForce = lerp(InitialPlayerPush, FinalPlayerPush, p)

	if e.DeadFlag {
		e.Acceleration.X, e.Acceleration.Y = 0, 0
		return
	}
	speed := e.MovementSpeed * (1 + 0.3*e.Skills.Completion(SkillMovementSpeed))
	e.Acceleration = e.MoveInput.Scale(speed)
}

// UpgradeSkill spends one skill point on s. It reports whether the point
// was spent.
func UpgradeSkill(e *Entity, s Skill) bool {
	if e.Kind != KindPlayer || e.DeadFlag || s >= skillCount {
		return false
	}
	if e.SkillPointsAvailable <= 0 || e.Skills[s].Level >= MaxPointsPerSkill {
		return false
	}
	if e.SkillPointsUsed >= MaxTotalSkillPoints {
		return false
	}
	e.Skills[s].Level++
	e.Skills.Recompute()
	e.SkillPointsUsed++
	e.SkillPointsAvailable--
	return true
}
