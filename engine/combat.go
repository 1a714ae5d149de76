package engine

import (
	"math"

	"warlockarena/game"
)

// Calculator 伤害与治疗计算，并直接修改目标生命值
type Calculator struct {
	cfg *Config
}

// NewCalculator 创建计算器；cfg 由引擎持有，热更新后立即生效
func NewCalculator(cfg *Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// DamageContext 伤害来源信息
type DamageContext struct {
	Attacker *game.Player // nil 表示怪物或持续效果
	Source   string
	Bonus    float64 // 协同倍率，0 视为 1
	Periodic bool    // 持续伤害：不可闪避，无视护甲
}

// DamageResult 伤害结算结果
type DamageResult struct {
	Success     bool
	FinalDamage int
	Err         error
	Missed      bool
	Killed      bool
	Revived     bool
}

// HealContext 治疗来源信息
type HealContext struct {
	Healer   *game.Player
	Bonus    float64
	Periodic bool
}

// HealResult 治疗结算结果；溢出部分只报告，不生效
type HealResult struct {
	Success        bool
	FinalHealing   int
	WasOverhealing bool
	Overheal       int
	Redirected     bool
	Recipient      game.Combatant
	Err            error
}

func multiplier(bonus float64) float64 {
	if bonus <= 0 {
		return 1
	}
	return bonus
}

func active(v *game.Vitals, name game.StatusName) (*game.StatusEffect, bool) {
	e, ok := v.Effects[name]
	if !ok || e.Turns <= 0 {
		return nil, false
	}
	return e, true
}

// ArmorReduction 护甲减伤比例：每点护甲固定百分比，含 shielded 加成，有上限
func (c *Calculator) ArmorReduction(v *game.Vitals) float64 {
	armor := v.Armor
	if e, ok := active(v, game.StatusShielded); ok {
		armor += e.Amount
	}
	r := float64(armor) * c.cfg.ArmorPerPoint
	if r < 0 {
		return 0
	}
	if r > c.cfg.MaxArmorReduction {
		return c.cfg.MaxArmorReduction
	}
	return r
}

// ApplyDamage 顺序：闪避判定 → 基础值 → 协同倍率 → 攻击者修正 → 目标减伤
func (c *Calculator) ApplyDamage(target game.Combatant, amount int, ctx DamageContext) DamageResult {
	v := target.State()
	if !v.Alive {
		return DamageResult{Err: game.ErrTargetDead}
	}
	// 隐身先于任何伤害计算判定
	if !ctx.Periodic {
		if _, ok := active(v, game.StatusInvisible); ok {
			return DamageResult{Missed: true, Err: game.ErrEvaded}
		}
	}

	dmg := float64(amount) * multiplier(ctx.Bonus)
	if a := ctx.Attacker; a != nil {
		dmg *= a.DamageMod
		if e, ok := active(&a.Vitals, game.StatusEnraged); ok && e.Multiplier > 0 {
			dmg *= e.Multiplier
		}
	}
	if !ctx.Periodic {
		dmg *= 1 - c.ArmorReduction(v)
	}
	if e, ok := active(v, game.StatusProtected); ok {
		dmg *= 1 - math.Min(math.Max(e.Percent, 0), 1)
	}

	final := int(math.Round(dmg))
	if final < 0 {
		final = 0
	}
	res := DamageResult{Success: true, FinalDamage: final}
	v.HP -= final
	if v.HP > 0 {
		return res
	}
	v.HP = 0
	if e, ok := active(v, game.StatusUndying); ok {
		v.HP = e.Amount
		if v.HP < 1 {
			v.HP = 1
		}
		if v.HP > v.MaxHP {
			v.HP = v.MaxHP
		}
		delete(v.Effects, game.StatusUndying)
		res.Revived = true
		return res
	}
	v.Alive = false
	res.Killed = true
	return res
}

// healRecipient 非术士对术士施放的治疗（含持续回复）转移到治疗者自身
func healRecipient(target game.Combatant, healer *game.Player) (game.Combatant, bool) {
	if healer == nil {
		return target, false
	}
	if p, ok := target.(*game.Player); ok && p.IsWarlock && !healer.IsWarlock && p.ID != healer.ID {
		return healer, true
	}
	return target, false
}

// ApplyHealing 非术士治疗术士时，治疗转移到治疗者自身
func (c *Calculator) ApplyHealing(target game.Combatant, amount int, ctx HealContext) HealResult {
	recipient, redirected := target, false
	if !ctx.Periodic {
		recipient, redirected = healRecipient(target, ctx.Healer)
	}

	v := recipient.State()
	if !v.Alive {
		return HealResult{Err: game.ErrTargetDead, Recipient: recipient, Redirected: redirected}
	}
	heal := int(math.Round(float64(amount) * multiplier(ctx.Bonus)))
	if heal < 0 {
		heal = 0
	}
	missing := v.MaxHP - v.HP
	if missing < 0 {
		missing = 0
	}
	applied := heal
	if applied > missing {
		applied = missing
	}
	v.HP += applied
	return HealResult{
		Success:        true,
		FinalHealing:   applied,
		WasOverhealing: heal > applied,
		Overheal:       heal - applied,
		Redirected:     redirected,
		Recipient:      recipient,
	}
}
