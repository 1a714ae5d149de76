package engine

import "warlockarena/game"

// StatusStore 状态效果的施加与每回合推进
type StatusStore struct {
	calc *Calculator
}

func NewStatusStore(calc *Calculator) *StatusStore {
	return &StatusStore{calc: calc}
}

// ApplyResult 施加结果；Refreshed 表示覆盖了已存在的同名效果
type ApplyResult struct {
	Success   bool
	Refreshed bool
}

// Apply 施加效果；同名效果覆盖数值并刷新持续时间，不叠加
func (s *StatusStore) Apply(entity game.Combatant, effect game.StatusEffect) ApplyResult {
	v := entity.State()
	if !v.Alive || effect.Name == "" || effect.Turns <= 0 {
		return ApplyResult{}
	}
	if v.Effects == nil {
		v.Effects = make(game.StatusMap)
	}
	_, existed := v.Effects[effect.Name]
	e := effect
	v.Effects[effect.Name] = &e
	return ApplyResult{Success: true, Refreshed: existed}
}

// Tick 一次效果推进的结果
type Tick struct {
	Effect  game.StatusName
	Damage  int
	Healing int
	Ended   bool
	Killed  bool
	Revived bool
}

// Process 每回合开始调用一次：先结算持续伤害/治疗，再递减回合数，归零即移除
func (s *StatusStore) Process(entity game.Combatant) []Tick {
	v := entity.State()
	var ticks []Tick
	for _, name := range game.StatusOrder() {
		e, ok := v.Effects[name]
		if !ok {
			continue
		}
		t := Tick{Effect: name}
		if v.Alive {
			switch name {
			case game.StatusPoisoned:
				r := s.calc.ApplyDamage(entity, e.Amount, DamageContext{Source: e.SourceID, Periodic: true})
				t.Damage, t.Killed, t.Revived = r.FinalDamage, r.Killed, r.Revived
			case game.StatusRegenerating:
				r := s.calc.ApplyHealing(entity, e.Amount, HealContext{Periodic: true})
				t.Healing = r.FinalHealing
			}
		}
		// undying 可能在上面的毒伤中被消耗
		if _, still := v.Effects[name]; still {
			e.Turns--
			if e.Turns <= 0 {
				delete(v.Effects, name)
				t.Ended = true
			}
		}
		if t.Damage > 0 || t.Healing > 0 || t.Ended || t.Killed || t.Revived {
			ticks = append(ticks, t)
		}
	}
	return ticks
}

// Has 效果是否激活
func (s *StatusStore) Has(entity game.Combatant, name game.StatusName) bool {
	return entity.State().Effects.Has(name)
}

// Get 返回效果副本
func (s *StatusStore) Get(entity game.Combatant, name game.StatusName) (game.StatusEffect, bool) {
	e, ok := entity.State().Effects[name]
	if !ok {
		return game.StatusEffect{}, false
	}
	return *e, true
}

// Remove 移除单个效果
func (s *StatusStore) Remove(entity game.Combatant, name game.StatusName) bool {
	v := entity.State()
	if _, ok := v.Effects[name]; !ok {
		return false
	}
	delete(v.Effects, name)
	return true
}

// Clear 清空全部效果（死亡、重生时使用）
func (s *StatusStore) Clear(entity game.Combatant) {
	entity.State().Effects = make(game.StatusMap)
}
