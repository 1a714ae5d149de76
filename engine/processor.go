package engine

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"warlockarena/game"
)

// Result 一次结算的日志条目与协同信息
type Result struct {
	Entries      []game.LogEntry
	Coordination Coordination
}

// Processor 单回合的行动结算：排序、校验、协同、施加效果
type Processor struct {
	game    *game.Game
	catalog *game.Catalog
	cfg     *Config
	calc    *Calculator
	status  *StatusStore
	log     *zap.SugaredLogger
}

// NewProcessor 创建行动处理器
func NewProcessor(g *game.Game, catalog *game.Catalog, cfg *Config, calc *Calculator, status *StatusStore, log *zap.SugaredLogger) *Processor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Processor{game: g, catalog: catalog, cfg: cfg, calc: calc, status: status, log: log}
}

// resolved 通过校验的行动
type resolved struct {
	action  game.PendingAction
	actor   *game.Player
	ability *game.Ability
	target  game.Combatant
}

// ProcessActions 结算职业技能；coord 为 nil 时在此计算协同
func (p *Processor) ProcessActions(actions []game.PendingAction, coord Coordination) Result {
	if coord == nil {
		coord = p.Coordinate(actions)
	}
	res := Result{Coordination: coord}
	for _, info := range coord {
		if info.Coordinated() {
			p.log.Debugw("coordinated attack", "target", info.TargetID, "kind", info.Kind, "actors", len(info.Actors), "multiplier", info.Multiplier)
		}
	}
	for _, a := range p.sorted(actions) {
		res.Entries = append(res.Entries, p.safely(a, func() []game.LogEntry {
			r, err := p.validate(a, false)
			if err != nil {
				return []game.LogEntry{failureEntry(a, err)}
			}
			p.payCost(r)
			return p.apply(r, coord)
		})...)
	}
	return res
}

// ProcessRacialActions 种族技能单独结算：校验种族、次数、冷却与生命消耗，不参与协同
func (p *Processor) ProcessRacialActions(actions []game.PendingAction) Result {
	var res Result
	for _, a := range p.sorted(actions) {
		res.Entries = append(res.Entries, p.safely(a, func() []game.LogEntry {
			r, err := p.validate(a, true)
			if err != nil {
				return []game.LogEntry{failureEntry(a, err)}
			}
			p.payCost(r)
			return p.apply(r, nil)
		})...)
	}
	return res
}

// Coordinate 只统计通过校验的行动，保证失败的行动不会为他人带来协同加成
func (p *Processor) Coordinate(actions []game.PendingAction) Coordination {
	valid := make([]game.PendingAction, 0, len(actions))
	for _, a := range actions {
		if _, err := p.validate(a, false); err == nil {
			valid = append(valid, a)
		}
	}
	return ComputeCoordination(p.game, p.catalog, valid, p.cfg.CoordinationBonus)
}

// sorted 按 (阶段, 阶段内顺序, 提交顺序) 稳定排序；未知技能排在最后
func (p *Processor) sorted(actions []game.PendingAction) []game.PendingAction {
	out := make([]game.PendingAction, len(actions))
	copy(out, actions)
	key := func(a game.PendingAction) (game.Phase, int) {
		if ab, ok := p.catalog.Get(a.AbilityID); ok {
			return ab.Phase, ab.Order
		}
		return game.PhaseSpecial + 1, 0
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, oi := key(out[i])
		pj, oj := key(out[j])
		if pi != pj {
			return pi < pj
		}
		if oi != oj {
			return oi < oj
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// safely 单个行动内的 panic 不影响本回合其余行动
func (p *Processor) safely(a game.PendingAction, fn func() []game.LogEntry) (entries []game.LogEntry) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("action panicked", "actor", a.ActorID, "ability", a.AbilityID, "target", a.TargetID, "panic", r)
			entries = []game.LogEntry{
				game.NewEntry(game.EntrySystem, string(a.ActorID), "An unexpected error prevented this action.").
					To(a.TargetID).
					With("reason", string(game.ReasonInternal)).
					With("error", fmt.Sprint(r)).
					At(game.PrioritySystem),
			}
		}
	}()
	return fn()
}

func failureEntry(a game.PendingAction, err *game.ActionError) game.LogEntry {
	return game.Failure(string(a.ActorID), a.TargetID, err.Reason, err.Error()).
		With("ability", a.AbilityID)
}

func (p *Processor) validate(a game.PendingAction, racial bool) (resolved, *game.ActionError) {
	actor, ok := p.game.Player(a.ActorID)
	if !ok {
		return resolved{}, game.Fail(game.ReasonInvalidActor, fmt.Sprintf("unknown actor %q", a.ActorID))
	}
	if !actor.Alive {
		return resolved{}, game.Fail(game.ReasonActorDead, actor.Name+" is dead")
	}
	if actor.Effects.Has(game.StatusStunned) {
		return resolved{}, game.Fail(game.ReasonStunned, actor.Name+" is stunned")
	}
	ability, ok := p.catalog.Get(a.AbilityID)
	if !ok {
		return resolved{}, game.Fail(game.ReasonUnknownAbility, fmt.Sprintf("unknown ability %q", a.AbilityID))
	}

	if racial {
		if !ability.IsRacial() {
			return resolved{}, game.Fail(game.ReasonAbilityLocked, ability.ID+" is not a racial ability")
		}
		if ability.Race != actor.Race {
			return resolved{}, game.Fail(game.ReasonWrongRace, ability.ID+" belongs to "+string(ability.Race))
		}
		if actor.Racial.Cooldown > 0 {
			return resolved{}, game.Fail(game.ReasonOnCooldown, fmt.Sprintf("%s ready in %d rounds", ability.ID, actor.Racial.Cooldown))
		}
		if ability.Usage.PerGame > 0 && actor.Racial.Uses >= ability.Usage.PerGame {
			return resolved{}, game.Fail(game.ReasonNoUsesLeft, ability.ID+" already used")
		}
		if cost := ability.Usage.HealthCost; cost > 0 && actor.HP <= cost {
			return resolved{}, game.Fail(game.ReasonInsufficientHealth, fmt.Sprintf("%s needs more than %d hp", ability.ID, cost))
		}
	} else {
		if ability.IsRacial() || !actor.HasAbility(ability.ID) {
			return resolved{}, game.Fail(game.ReasonAbilityLocked, ability.ID+" is not available to "+actor.Name)
		}
		if cd := actor.Cooldowns[ability.ID]; cd > 0 {
			return resolved{}, game.Fail(game.ReasonOnCooldown, fmt.Sprintf("%s ready in %d rounds", ability.ID, cd))
		}
	}

	targetID := a.TargetID
	if targetID == "" && ability.Allows(game.TargetSelf) {
		targetID = string(actor.ID)
	}
	target, ok := p.game.Target(targetID)
	if !ok {
		return resolved{}, game.Fail(game.ReasonInvalidTarget, fmt.Sprintf("unknown target %q", a.TargetID))
	}
	if !targetAllowed(ability, actor, target) {
		return resolved{}, game.Fail(game.ReasonWrongTargetKind, ability.ID+" cannot target "+target.Label())
	}
	if !target.State().Alive {
		return resolved{}, game.Fail(game.ReasonTargetDead, target.Label()+" is dead")
	}
	return resolved{action: a, actor: actor, ability: ability, target: target}, nil
}

func targetAllowed(ability *game.Ability, actor *game.Player, target game.Combatant) bool {
	switch t := target.(type) {
	case *game.Monster:
		return ability.Allows(game.TargetMonster)
	case *game.Player:
		if t.ID == actor.ID {
			return ability.Allows(game.TargetSelf) || ability.Allows(game.TargetPlayer)
		}
		return ability.Allows(game.TargetPlayer)
	}
	return false
}

// payCost 通过校验即计入冷却与消耗，未命中也不返还
func (p *Processor) payCost(r resolved) {
	if r.ability.IsRacial() {
		r.actor.Racial.Uses++
		r.actor.Racial.Cooldown = r.ability.Cooldown
		if cost := r.ability.Usage.HealthCost; cost > 0 {
			r.actor.HP -= cost
		}
		return
	}
	if r.ability.Cooldown > 0 {
		if r.actor.Cooldowns == nil {
			r.actor.Cooldowns = make(map[string]int)
		}
		r.actor.Cooldowns[r.ability.ID] = r.ability.Cooldown
	}
}

func (p *Processor) apply(r resolved, coord Coordination) []game.LogEntry {
	actor, ability, target := r.actor, r.ability, r.target
	src, dst := string(actor.ID), target.TargetID()

	switch e := ability.Effect.Effect.(type) {
	case game.Damage:
		return p.strike(r, e.Amount, coord.Bonus(dst, CoordinateDamage), nil)

	case game.Poison:
		return p.strike(r, e.Damage, coord.Bonus(dst, CoordinateDamage), &game.StatusEffect{
			Name: game.StatusPoisoned, Type: game.Debuff, Turns: e.Duration, Amount: e.TickDamage, SourceID: src,
		})

	case game.Heal:
		bonus := coord.Bonus(dst, CoordinateHealing)
		h := p.calc.ApplyHealing(target, e.Amount, HealContext{Healer: actor, Bonus: bonus})
		recipient := h.Recipient.TargetID()
		if !h.Success {
			return []game.LogEntry{game.Failure(src, recipient, game.ReasonTargetDead, h.Recipient.Label()+" cannot be healed").With("ability", ability.ID)}
		}
		msg := fmt.Sprintf("%s's %s heals %s for %d.", actor.Name, ability.Name, h.Recipient.Label(), h.FinalHealing)
		if h.Redirected {
			msg = fmt.Sprintf("%s tries to heal %s, but the healing turns back on %s for %d.", actor.Name, target.Label(), actor.Name, h.FinalHealing)
		}
		entry := game.NewEntry(game.EntryHeal, src, msg).
			To(recipient).
			With("ability", ability.ID).
			With("healing", h.FinalHealing).
			With("overheal", h.Overheal).
			With("redirected", h.Redirected)
		if bonus > 1 {
			entry = entry.With("coordinationBonus", bonus)
		}
		return []game.LogEntry{entry}

	case game.Shield:
		return p.buff(r, game.StatusEffect{Name: game.StatusShielded, Type: game.Buff, Turns: e.Duration, Amount: e.Armor, SourceID: src})
	case game.DamageReduction:
		return p.buff(r, game.StatusEffect{Name: game.StatusProtected, Type: game.Buff, Turns: e.Duration, Percent: e.Percent, SourceID: src})
	case game.Regeneration:
		regen := game.StatusEffect{Name: game.StatusRegenerating, Type: game.Buff, Turns: e.Duration, Amount: e.TickHeal, SourceID: src}
		recipient, redirected := healRecipient(target, actor)
		if !redirected {
			return p.buff(r, regen)
		}
		r.target = recipient
		entries := p.buff(r, regen)
		if entries[0].Type == game.EntryStatus {
			entries[0].Message = fmt.Sprintf("%s tries to use %s on %s, but it turns back on %s (%s).", actor.Name, ability.Name, target.Label(), actor.Name, regen.Name)
			entries[0] = entries[0].With("redirected", true)
		}
		return entries
	case game.Invisibility:
		return p.buff(r, game.StatusEffect{Name: game.StatusInvisible, Type: game.Buff, Turns: e.Duration, SourceID: src})
	case game.Stun:
		return p.buff(r, game.StatusEffect{Name: game.StatusStunned, Type: game.Debuff, Turns: e.Duration, SourceID: src})
	case game.Enrage:
		return p.buff(r, game.StatusEffect{Name: game.StatusEnraged, Type: game.Buff, Turns: e.Duration, Multiplier: e.Multiplier, SourceID: src})
	case game.Undying:
		return p.buff(r, game.StatusEffect{Name: game.StatusUndying, Type: game.Buff, Turns: e.Duration, Amount: e.ReviveHP, SourceID: src})

	case game.Detect:
		warlock := false
		if pl, ok := target.(*game.Player); ok {
			warlock = pl.IsWarlock
		}
		verdict := "is not a Warlock"
		if warlock {
			verdict = "IS a Warlock"
		}
		return []game.LogEntry{
			game.NewEntry(game.EntryDetect, src, fmt.Sprintf("%s senses that %s %s.", actor.Name, target.Label(), verdict)).
				To(dst).
				With("ability", ability.ID).
				With("isWarlock", warlock).
				PrivateTo(src).
				At(game.PriorityHigh),
		}
	}
	panic(fmt.Sprintf("ability %s has unsupported effect %T", ability.ID, ability.Effect.Effect))
}

// strike 伤害类技能的公共路径；onHit 为命中后附加的状态
func (p *Processor) strike(r resolved, amount int, bonus float64, onHit *game.StatusEffect) []game.LogEntry {
	actor, ability, target := r.actor, r.ability, r.target
	src, dst := string(actor.ID), target.TargetID()

	d := p.calc.ApplyDamage(target, amount, DamageContext{Attacker: actor, Source: src, Bonus: bonus})
	if d.Missed {
		return []game.LogEntry{
			game.NewEntry(game.EntryAction, src, fmt.Sprintf("%s's %s misses %s.", actor.Name, ability.Name, target.Label())).
				To(dst).
				With("ability", ability.ID).
				With("reason", string(game.ReasonEvaded)),
		}
	}
	if !d.Success {
		return []game.LogEntry{game.Failure(src, dst, game.ReasonTargetDead, target.Label()+" is already dead").With("ability", ability.ID)}
	}

	entry := game.NewEntry(game.EntryDamage, src, fmt.Sprintf("%s's %s hits %s for %d.", actor.Name, ability.Name, target.Label(), d.FinalDamage)).
		To(dst).
		With("ability", ability.ID).
		With("damage", d.FinalDamage)
	if bonus > 1 {
		entry = entry.With("coordinationBonus", bonus)
	}
	entries := []game.LogEntry{entry}

	if onHit != nil && target.State().Alive {
		if res := p.status.Apply(target, *onHit); res.Success {
			entries = append(entries, statusEntry(actor, ability, target, onHit.Name))
		}
	}
	return append(entries, p.aftermath(src, target, d)...)
}

func (p *Processor) buff(r resolved, effect game.StatusEffect) []game.LogEntry {
	res := p.status.Apply(r.target, effect)
	if !res.Success {
		return []game.LogEntry{game.Failure(string(r.actor.ID), r.target.TargetID(), game.ReasonTargetDead, "effect could not be applied").With("ability", r.ability.ID)}
	}
	return []game.LogEntry{statusEntry(r.actor, r.ability, r.target, effect.Name).With("refreshed", res.Refreshed)}
}

func statusEntry(actor *game.Player, ability *game.Ability, target game.Combatant, name game.StatusName) game.LogEntry {
	msg := fmt.Sprintf("%s uses %s on %s (%s).", actor.Name, ability.Name, target.Label(), name)
	if target.TargetID() == string(actor.ID) {
		msg = fmt.Sprintf("%s uses %s (%s).", actor.Name, ability.Name, name)
	}
	return game.NewEntry(game.EntryStatus, string(actor.ID), msg).
		To(target.TargetID()).
		With("ability", ability.ID).
		With("effect", string(name))
}

// aftermath 死亡与不死复活的附加条目
func (p *Processor) aftermath(src string, target game.Combatant, d DamageResult) []game.LogEntry {
	switch {
	case d.Revived:
		return []game.LogEntry{
			game.NewEntry(game.EntryStatus, src, target.Label()+" refuses to die!").
				To(target.TargetID()).
				With("effect", string(game.StatusUndying)).
				At(game.PriorityHigh),
		}
	case d.Killed:
		return []game.LogEntry{deathEntry(src, target)}
	}
	return nil
}

func deathEntry(src string, target game.Combatant) game.LogEntry {
	return game.NewEntry(game.EntryDeath, src, target.Label()+" has fallen.").
		To(target.TargetID()).
		At(game.PriorityHigh)
}
