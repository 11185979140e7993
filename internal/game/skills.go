package game

import "encoding/json"

// Skill identifies one upgradeable stat.
type Skill uint8

const (
	SkillHealthRegen Skill = iota
	SkillMaxHealth
	SkillBodyDamage
	SkillBulletSpeed
	SkillBulletHealth
	SkillBulletDamage
	SkillReload
	SkillMovementSpeed
	skillCount
)

const (
	MaxPointsPerSkill   = 7
	MaxTotalSkillPoints = 35
)

var skillNames = [skillCount]string{
	"healthRegen",
	"maxHealth",
	"bodyDmg",
	"bulletSpeed",
	"bulletHealth",
	"bulletDmg",
	"reload",
	"movementSpeed",
}

// String returns the wire name of the skill.
func (s Skill) String() string {
	if s >= skillCount {
		return "unknown"
	}
	return skillNames[s]
}

// ParseSkill maps a wire name back to a Skill.
func ParseSkill(name string) (Skill, bool) {
	for i, n := range skillNames {
		if n == name {
			return Skill(i), true
		}
	}
	return 0, false
}

// AllSkills lists every skill in wire order.
func AllSkills() []Skill {
	out := make([]Skill, skillCount)
	for i := range out {
		out[i] = Skill(i)
	}
	return out
}

// SkillState is the invested level of one skill.
type SkillState struct {
	Level      int     `json:"level"`
	Completion float64 `json:"completion"` // Level / MaxPointsPerSkill
}

// Skills holds every skill of an entity, indexed by Skill.
type Skills [skillCount]SkillState

// Completion returns the completion of s in [0, 1].
func (sk *Skills) Completion(s Skill) float64 {
	if s >= skillCount {
		return 0
	}
	return sk[s].Completion
}

// Recompute refreshes every Completion from its Level.
func (sk *Skills) Recompute() {
	for i := range sk {
		sk[i].Completion = float64(sk[i].Level) / MaxPointsPerSkill
	}
}

// MarshalJSON encodes skills keyed by wire name.
func (sk Skills) MarshalJSON() ([]byte, error) {
	m := make(map[string]SkillState, skillCount)
	for i, st := range sk {
		m[skillNames[i]] = st
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes skills keyed by wire name; unknown names are ignored.
func (sk *Skills) UnmarshalJSON(data []byte) error {
	var m map[string]SkillState
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for name, st := range m {
		if s, ok := ParseSkill(name); ok {
			sk[s] = st
		}
	}
	return nil
}
