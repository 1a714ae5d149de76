package engine

import (
	"errors"
	"fmt"
	"math"

	"warlockarena/game"
)

// Config 结算引擎的可调参数（可通过管理接口热更新）
type Config struct {
	CoordinationBonus float64 `json:"coordinationBonus"` // 每多一名协同者增加的倍率
	ArmorPerPoint     float64 `json:"armorPerPoint"`     // 每点护甲的减伤比例
	MaxArmorReduction float64 `json:"maxArmorReduction"`

	PlayerBaseHP   int     `json:"playerBaseHp"`
	HPPerLevel     float64 `json:"hpPerLevel"`
	DamagePerLevel float64 `json:"damagePerLevel"`

	MonsterBaseHP         int `json:"monsterBaseHp"`
	MonsterHPPerLevel     int `json:"monsterHpPerLevel"`
	MonsterBaseDamage     int `json:"monsterBaseDamage"`
	MonsterDamagePerLevel int `json:"monsterDamagePerLevel"`
	MonsterAgeDamage      int `json:"monsterAgeDamage"` // 怪物每存活一回合增加的伤害
}

// DefaultConfig 默认平衡参数
func DefaultConfig() Config {
	return Config{
		CoordinationBonus:     0.1,
		ArmorPerPoint:         0.1,
		MaxArmorReduction:     0.9,
		PlayerBaseHP:          100,
		HPPerLevel:            0.2,
		DamagePerLevel:        0.25,
		MonsterBaseHP:         100,
		MonsterHPPerLevel:     50,
		MonsterBaseDamage:     10,
		MonsterDamagePerLevel: 5,
		MonsterAgeDamage:      2,
	}
}

// ErrInvalidConfig 参数越界
var ErrInvalidConfig = errors.New("invalid engine config")

// Validate 校验参数范围
func (c Config) Validate() error {
	switch {
	case c.CoordinationBonus < 0:
		return fmt.Errorf("%w: coordinationBonus must be >= 0", ErrInvalidConfig)
	case c.ArmorPerPoint < 0:
		return fmt.Errorf("%w: armorPerPoint must be >= 0", ErrInvalidConfig)
	case c.MaxArmorReduction < 0 || c.MaxArmorReduction > 1:
		return fmt.Errorf("%w: maxArmorReduction must be within [0, 1]", ErrInvalidConfig)
	case c.PlayerBaseHP <= 0 || c.MonsterBaseHP <= 0:
		return fmt.Errorf("%w: base hp must be positive", ErrInvalidConfig)
	case c.HPPerLevel < 0 || c.DamagePerLevel < 0:
		return fmt.Errorf("%w: per-level growth must be >= 0", ErrInvalidConfig)
	case c.MonsterHPPerLevel < 0 || c.MonsterBaseDamage < 0 || c.MonsterDamagePerLevel < 0 || c.MonsterAgeDamage < 0:
		return fmt.Errorf("%w: monster parameters must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// ScalePlayer 按等级重算玩家属性：
// maxHp = base × 种族 × 职业 × (1 + hpPerLevel×(level-1))
// damage = 种族 × 职业 × (1 + damagePerLevel×(level-1))
func ScalePlayer(p *game.Player, level int, cfg Config) {
	if level < 1 {
		level = 1
	}
	rt, ct := game.RaceTraits(p.Race), game.ClassTraits(p.Class)
	growth := float64(level - 1)
	p.Level = level
	p.MaxHP = int(math.Round(float64(cfg.PlayerBaseHP) * rt.HP * ct.HP * (1 + cfg.HPPerLevel*growth)))
	p.Armor = rt.Armor + ct.Armor
	p.DamageMod = rt.Damage * ct.Damage * (1 + cfg.DamagePerLevel*growth)
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
}

// SpawnMonster 按等级重生怪物，清空效果与年龄
func SpawnMonster(m *game.Monster, level int, cfg Config) {
	if level < 1 {
		level = 1
	}
	m.Level = level
	m.MaxHP = cfg.MonsterBaseHP + (level-1)*cfg.MonsterHPPerLevel
	m.HP = m.MaxHP
	m.Armor = 0
	m.Alive = true
	m.Age = 0
	m.Damage = cfg.MonsterBaseDamage + (level-1)*cfg.MonsterDamagePerLevel
	m.Effects = make(game.StatusMap)
}
