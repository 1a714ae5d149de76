package game

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Category 技能类别
type Category string

const (
	CategoryAttack  Category = "attack"
	CategoryHeal    Category = "heal"
	CategoryDefense Category = "defense"
	CategorySpecial Category = "special"
	CategoryRacial  Category = "racial"
)

// Phase 回合内的结算阶段，数值越小越先结算：
// Protection < Control < Healing < Attack < Special
type Phase int

const (
	PhaseProtection Phase = iota
	PhaseControl
	PhaseHealing
	PhaseAttack
	PhaseSpecial
)

var phaseNames = map[string]Phase{
	"protection": PhaseProtection,
	"control":    PhaseControl,
	"healing":    PhaseHealing,
	"attack":     PhaseAttack,
	"special":    PhaseSpecial,
}

func (p Phase) String() string {
	for name, v := range phaseNames {
		if v == p {
			return name
		}
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p *Phase) UnmarshalYAML(value *yaml.Node) error {
	v, ok := phaseNames[value.Value]
	if !ok {
		return fmt.Errorf("line %d: unknown phase %q", value.Line, value.Value)
	}
	*p = v
	return nil
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// TargetKind 技能允许的目标种类
type TargetKind string

const (
	TargetSelf    TargetKind = "self"    // 仅施放者自身
	TargetPlayer  TargetKind = "player"  // 任意玩家（含自身）
	TargetMonster TargetKind = "monster" // 怪物
)

// Usage 种族技能的使用限制
type Usage struct {
	PerGame    int `yaml:"per_game" json:"perGame,omitempty"`       // 0 表示不限次数
	HealthCost int `yaml:"health_cost" json:"healthCost,omitempty"` // 施放时扣除的生命值
}

// Ability 技能目录中的不可变条目
type Ability struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Category    Category     `yaml:"category" json:"category"`
	Phase       Phase        `yaml:"phase" json:"phase"`
	Order       int          `yaml:"order" json:"order"`
	Targets     []TargetKind `yaml:"targets" json:"targets"`
	UnlockLevel int          `yaml:"unlock_level" json:"unlockLevel"`
	Classes     []Class      `yaml:"classes" json:"classes,omitempty"`
	Race        Race         `yaml:"race" json:"race,omitempty"`
	Cooldown    int          `yaml:"cooldown" json:"cooldown,omitempty"`
	Usage       Usage        `yaml:"usage" json:"usage"`
	Effect      EffectSpec   `yaml:"effect" json:"effect"`
}

// Allows 判断目标种类是否被该技能允许
func (a *Ability) Allows(kind TargetKind) bool {
	for _, t := range a.Targets {
		if t == kind {
			return true
		}
	}
	return false
}

// AvailableTo 职业是否可以使用该技能
func (a *Ability) AvailableTo(c Class) bool {
	for _, cl := range a.Classes {
		if cl == c {
			return true
		}
	}
	return false
}

// IsRacial 种族技能走独立的结算流程
func (a *Ability) IsRacial() bool { return a.Category == CategoryRacial }

// Effect 技能效果的强类型变体，按 Kind 分派
type Effect interface {
	Kind() string
}

// Damage 直接伤害
type Damage struct {
	Amount int `yaml:"amount" json:"amount"`
}

// Heal 直接治疗
type Heal struct {
	Amount int `yaml:"amount" json:"amount"`
}

// Shield 额外护甲
type Shield struct {
	Armor    int `yaml:"armor" json:"armor"`
	Duration int `yaml:"duration" json:"duration"`
}

// DamageReduction 百分比伤害减免（如 shield wall）
type DamageReduction struct {
	Percent  float64 `yaml:"percent" json:"percent"`
	Duration int     `yaml:"duration" json:"duration"`
}

// Poison 命中伤害加持续伤害
type Poison struct {
	Damage     int `yaml:"damage" json:"damage"`
	TickDamage int `yaml:"tick_damage" json:"tickDamage"`
	Duration   int `yaml:"duration" json:"duration"`
}

// Regeneration 持续治疗
type Regeneration struct {
	TickHeal int `yaml:"tick_heal" json:"tickHeal"`
	Duration int `yaml:"duration" json:"duration"`
}

// Invisibility 隐身期间非持续伤害全部落空
type Invisibility struct {
	Duration int `yaml:"duration" json:"duration"`
}

// Stun 眩晕期间无法行动
type Stun struct {
	Duration int `yaml:"duration" json:"duration"`
}

// Enrage 伤害倍率增益
type Enrage struct {
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
	Duration   int     `yaml:"duration" json:"duration"`
}

// Undying 致命伤害时以 ReviveHP 存活一次
type Undying struct {
	ReviveHP int `yaml:"revive_hp" json:"reviveHp"`
	Duration int `yaml:"duration" json:"duration"`
}

// Detect 私下探知目标是否为术士
type Detect struct{}

func (Damage) Kind() string          { return "damage" }
func (Heal) Kind() string            { return "heal" }
func (Shield) Kind() string          { return "shield" }
func (DamageReduction) Kind() string { return "damage_reduction" }
func (Poison) Kind() string          { return "poison" }
func (Regeneration) Kind() string    { return "regeneration" }
func (Invisibility) Kind() string    { return "invisibility" }
func (Stun) Kind() string            { return "stun" }
func (Enrage) Kind() string          { return "enrage" }
func (Undying) Kind() string         { return "undying" }
func (Detect) Kind() string          { return "detect" }

// EffectSpec 包装 Effect，负责按 kind 字段解码 YAML
type EffectSpec struct {
	Effect
}

func (s *EffectSpec) UnmarshalYAML(value *yaml.Node) error {
	var head struct {
		Kind string `yaml:"kind"`
	}
	if err := value.Decode(&head); err != nil {
		return err
	}
	var e Effect
	switch head.Kind {
	case "damage":
		var v Damage
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "heal":
		var v Heal
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "shield":
		var v Shield
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "damage_reduction":
		var v DamageReduction
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "poison":
		var v Poison
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "regeneration":
		var v Regeneration
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "invisibility":
		var v Invisibility
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "stun":
		var v Stun
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "enrage":
		var v Enrage
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "undying":
		var v Undying
		if err := value.Decode(&v); err != nil {
			return err
		}
		e = v
	case "detect":
		e = Detect{}
	default:
		return fmt.Errorf("line %d: unknown effect kind %q", value.Line, head.Kind)
	}
	s.Effect = e
	return nil
}

// MarshalJSON 输出时带上 kind，供管理接口展示
func (s EffectSpec) MarshalJSON() ([]byte, error) {
	if s.Effect == nil {
		return []byte("null"), nil
	}
	return marshalWithKind(s.Kind(), s.Effect)
}
