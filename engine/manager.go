package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"warlockarena/game"
)

var (
	ErrGameOver         = errors.New("game is over")
	ErrNotStarted       = errors.New("game has not started")
	ErrGameStarted      = errors.New("game already started")
	ErrNotEnoughPlayers = errors.New("not enough players")
)

// MinPlayers 开局所需的最少玩家数
const MinPlayers = 2

// 回合状态机的阶段
const (
	PhaseIdle        = "idle"
	PhaseRoundStart  = "round_start"
	PhaseActions     = "actions"
	PhaseRacial      = "racial"
	PhaseMonster     = "monster"
	PhaseDefeatCheck = "defeat_check"
	PhaseLevelUp     = "level_up"
	PhaseWinCheck    = "win_check"
	PhaseRoundEnd    = "round_end"
	PhaseGameOver    = "game_over"
)

func newRoundFSM() *fsm.FSM {
	return fsm.NewFSM(PhaseIdle, fsm.Events{
		{Name: "begin", Src: []string{PhaseIdle}, Dst: PhaseRoundStart},
		{Name: "resolve", Src: []string{PhaseRoundStart}, Dst: PhaseActions},
		{Name: "racial", Src: []string{PhaseActions}, Dst: PhaseRacial},
		{Name: "monster", Src: []string{PhaseRacial}, Dst: PhaseMonster},
		{Name: "check_defeat", Src: []string{PhaseMonster}, Dst: PhaseDefeatCheck},
		{Name: "level_up", Src: []string{PhaseDefeatCheck}, Dst: PhaseLevelUp},
		{Name: "check_win", Src: []string{PhaseDefeatCheck, PhaseLevelUp}, Dst: PhaseWinCheck},
		{Name: "end_round", Src: []string{PhaseWinCheck}, Dst: PhaseRoundEnd},
		{Name: "rest", Src: []string{PhaseRoundEnd}, Dst: PhaseIdle},
		{Name: "finish", Src: []string{PhaseWinCheck}, Dst: PhaseGameOver},
	}, fsm.Callbacks{})
}

// RoundOutcome 一个回合的完整结算结果
type RoundOutcome struct {
	Round        int
	Level        int
	Entries      []game.LogEntry
	Coordination Coordination
	LevelUp      bool
	Winner       game.WinCondition
	GameOver     bool
}

// Manager 推进回合：回合开始 → 职业行动 → 种族行动 → 怪物攻击 → 击杀判定/升级 → 胜负判定
type Manager struct {
	game    *game.Game
	catalog *game.Catalog
	cfg     *Config
	calc    *Calculator
	status  *StatusStore
	proc    *Processor
	phase   *fsm.FSM
	rng     *rand.Rand
	log     *zap.SugaredLogger
}

// Option 配置 Manager
type Option func(*Manager)

func WithLogger(l *zap.SugaredLogger) Option { return func(m *Manager) { m.log = l } }
func WithRand(r *rand.Rand) Option { return func(m *Manager) { m.rng = r } }
func WithConfig(c Config) Option { return func(m *Manager) { *m.cfg = c } }

// NewManager 创建一个房间独占的引擎实例
func NewManager(g *game.Game, catalog *game.Catalog, opts ...Option) *Manager {
	cfg := DefaultConfig()
	m := &Manager{
		game:    g,
		catalog: catalog,
		cfg:     &cfg,
		phase:   newRoundFSM(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.calc = NewCalculator(m.cfg)
	m.status = NewStatusStore(m.calc)
	m.proc = NewProcessor(g, catalog, m.cfg, m.calc, m.status, m.log)
	SpawnMonster(g.Monster, g.Level, *m.cfg)
	return m
}

func (m *Manager) Game() *game.Game { return m.game }
func (m *Manager) Catalog() *game.Catalog { return m.catalog }
func (m *Manager) Processor() *Processor { return m.proc }
func (m *Manager) Status() *StatusStore { return m.status }
func (m *Manager) Calculator() *Calculator { return m.calc }
func (m *Manager) Config() Config { return *m.cfg }
func (m *Manager) Phase() string { return m.phase.Current() }
func (m *Manager) SetConfig(c Config) { *m.cfg = c }

// Enroll 按当前等级初始化玩家属性与技能并加入对局
func (m *Manager) Enroll(p *game.Player) error {
	if m.game.Started {
		return ErrGameStarted
	}
	ScalePlayer(p, m.game.Level, *m.cfg)
	p.HP = p.MaxHP
	p.Alive = true
	p.Abilities = m.catalog.UnlockedFor(p.Class, m.game.Level)
	return m.game.AddPlayer(p)
}

// Start 开局：重生怪物并随机指定术士（每 4 人 1 名，至少 1 名）
func (m *Manager) Start() ([]game.LogEntry, error) {
	g := m.game
	if g.Started {
		return nil, ErrGameStarted
	}
	roster := g.Roster()
	if len(roster) < MinPlayers {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughPlayers, MinPlayers, len(roster))
	}
	SpawnMonster(g.Monster, g.Level, *m.cfg)

	warlocks := len(roster) / 4
	if warlocks < 1 {
		warlocks = 1
	}
	entries := []game.LogEntry{
		game.NewEntry(game.EntrySystem, "system", fmt.Sprintf("The game begins with %d players.", len(roster))).
			With("players", len(roster)).
			At(game.PrioritySystem),
	}
	for _, idx := range m.rng.Perm(len(roster))[:warlocks] {
		p := roster[idx]
		p.IsWarlock = true
		entries = append(entries, game.NewEntry(game.EntrySystem, "system", "You are a Warlock.").
			To(string(p.ID)).
			Private().
			At(game.PriorityHigh))
	}
	g.Started = true
	m.log.Infow("game started", "game", g.ID, "players", len(roster), "warlocks", warlocks)
	return entries, nil
}

func (m *Manager) enter(ctx context.Context, event string) error {
	if err := m.phase.Event(ctx, event); err != nil {
		return fmt.Errorf("round phase %s -> %s: %w", m.phase.Current(), event, err)
	}
	return nil
}

// Round 取出玩家槽位中的行动并结算一个回合
func (m *Manager) Round(ctx context.Context) (RoundOutcome, error) {
	return m.ProcessRound(ctx, m.game.CollectActions())
}

// ProcessRound 同步结算一个完整回合
func (m *Manager) ProcessRound(ctx context.Context, actions []game.PendingAction) (RoundOutcome, error) {
	if err := ctx.Err(); err != nil {
		return RoundOutcome{}, err
	}
	g := m.game
	if !g.Started {
		return RoundOutcome{}, ErrNotStarted
	}
	if g.IsGameOver() || m.phase.Current() == PhaseGameOver {
		return RoundOutcome{}, ErrGameOver
	}

	var out RoundOutcome
	class, racial := m.split(actions)
	steps := []struct {
		event string
		run   func()
	}{
		{"begin", func() { out.Entries = append(out.Entries, m.roundStart()...) }},
		{"resolve", func() {
			res := m.proc.ProcessActions(class, nil)
			out.Coordination = res.Coordination
			out.Entries = append(out.Entries, res.Entries...)
		}},
		{"racial", func() {
			out.Entries = append(out.Entries, m.proc.ProcessRacialActions(racial).Entries...)
		}},
		{"monster", func() { out.Entries = append(out.Entries, m.monsterAttack()...) }},
		{"check_defeat", func() {}},
	}
	for _, s := range steps {
		if err := m.enter(ctx, s.event); err != nil {
			return out, err
		}
		s.run()
	}

	if !g.Monster.Alive || g.Monster.HP <= 0 {
		if err := m.enter(ctx, "level_up"); err != nil {
			return out, err
		}
		out.Entries = append(out.Entries, m.levelUp()...)
		out.LevelUp = true
	}

	if err := m.enter(ctx, "check_win"); err != nil {
		return out, err
	}
	out.Round, out.Level = g.Round, g.Level
	out.Winner = g.WinCondition()
	if out.Winner != game.WinNone {
		out.GameOver = true
		out.Entries = append(out.Entries, game.NewEntry(game.EntryGameOver, "system", winMessage(out.Winner)).
			With("winner", string(out.Winner)).
			At(game.PrioritySystem))
		if err := m.enter(ctx, "finish"); err != nil {
			return out, err
		}
		m.log.Infow("game over", "game", g.ID, "round", g.Round, "winner", out.Winner)
		return out, nil
	}

	if err := m.enter(ctx, "end_round"); err != nil {
		return out, err
	}
	if err := m.enter(ctx, "rest"); err != nil {
		return out, err
	}
	m.log.Debugw("round resolved", "game", g.ID, "round", g.Round, "entries", len(out.Entries))
	return out, nil
}

func winMessage(w game.WinCondition) string {
	switch w {
	case game.WinGood:
		return "The Warlocks have been defeated. Good prevails!"
	case game.WinWarlocks:
		return "The Warlocks have taken over."
	default:
		return "Nobody is left standing."
	}
}

// split 按提交槽位分组；槽位与技能类别不符的行动由各自一轮的校验拒绝
func (m *Manager) split(actions []game.PendingAction) (class, racial []game.PendingAction) {
	for _, a := range actions {
		if a.Racial {
			racial = append(racial, a)
			continue
		}
		class = append(class, a)
	}
	return class, racial
}

// roundStart 回合计数、冷却与状态效果推进、怪物成长
func (m *Manager) roundStart() []game.LogEntry {
	g := m.game
	g.Round++
	entries := []game.LogEntry{
		game.NewEntry(game.EntryRound, "system", fmt.Sprintf("Round %d begins.", g.Round)).
			With("round", g.Round).
			At(game.PriorityLow),
	}
	for _, p := range g.Roster() {
		for id, cd := range p.Cooldowns {
			if cd <= 1 {
				delete(p.Cooldowns, id)
			} else {
				p.Cooldowns[id] = cd - 1
			}
		}
		if p.Racial.Cooldown > 0 {
			p.Racial.Cooldown--
		}
		entries = append(entries, m.tickEntries(p, m.status.Process(p))...)
	}
	entries = append(entries, m.tickEntries(g.Monster, m.status.Process(g.Monster))...)
	if g.Monster.Alive {
		g.Monster.Age++
	}
	return entries
}

func (m *Manager) tickEntries(c game.Combatant, ticks []Tick) []game.LogEntry {
	var out []game.LogEntry
	id := c.TargetID()
	for _, t := range ticks {
		switch {
		case t.Damage > 0:
			out = append(out, game.NewEntry(game.EntryTick, id, fmt.Sprintf("%s takes %d damage from %s.", c.Label(), t.Damage, t.Effect)).
				To(id).
				With("effect", string(t.Effect)).
				With("damage", t.Damage))
		case t.Healing > 0:
			out = append(out, game.NewEntry(game.EntryTick, id, fmt.Sprintf("%s recovers %d hp from %s.", c.Label(), t.Healing, t.Effect)).
				To(id).
				With("effect", string(t.Effect)).
				With("healing", t.Healing))
		}
		if t.Revived {
			out = append(out, game.NewEntry(game.EntryStatus, id, c.Label()+" refuses to die!").
				To(id).
				With("effect", string(game.StatusUndying)).
				At(game.PriorityHigh))
		}
		if t.Killed {
			out = append(out, deathEntry(id, c))
		}
		if t.Ended {
			out = append(out, game.NewEntry(game.EntryStatus, id, fmt.Sprintf("%s wears off %s.", t.Effect, c.Label())).
				To(id).
				With("effect", string(t.Effect)).
				With("expired", true).
				At(game.PriorityLow))
		}
	}
	return out
}

// monsterAttack 怪物随机攻击一名存活且未隐身的玩家，伤害随年龄增长
func (m *Manager) monsterAttack() []game.LogEntry {
	g := m.game
	mon := g.Monster
	if !mon.Alive {
		return nil
	}
	if mon.Effects.Has(game.StatusStunned) {
		return []game.LogEntry{game.NewEntry(game.EntryMonster, game.MonsterID, "The Monster is stunned and cannot attack.").At(game.PriorityLow)}
	}
	var candidates []*game.Player
	for _, p := range g.AlivePlayers() {
		if !p.Effects.Has(game.StatusInvisible) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return []game.LogEntry{game.NewEntry(game.EntryMonster, game.MonsterID, "The Monster finds no one to attack.").At(game.PriorityLow)}
	}
	target := candidates[m.rng.Intn(len(candidates))]
	amount := mon.Damage + mon.Age*m.cfg.MonsterAgeDamage
	d := m.calc.ApplyDamage(target, amount, DamageContext{Source: game.MonsterID})
	entries := []game.LogEntry{
		game.NewEntry(game.EntryMonster, game.MonsterID, fmt.Sprintf("The Monster attacks %s for %d.", target.Name, d.FinalDamage)).
			To(string(target.ID)).
			With("damage", d.FinalDamage).
			With("age", mon.Age),
	}
	return append(entries, m.proc.aftermath(game.MonsterID, target, d)...)
}

// levelUp 全体升级：重算属性、重新筛选技能、按新等级重生怪物
func (m *Manager) levelUp() []game.LogEntry {
	g := m.game
	g.Level++
	for _, p := range g.Roster() {
		ScalePlayer(p, g.Level, *m.cfg)
		if p.Alive {
			p.HP = p.MaxHP
		}
		p.Abilities = m.catalog.UnlockedFor(p.Class, g.Level)
	}
	SpawnMonster(g.Monster, g.Level, *m.cfg)
	m.log.Infow("level up", "game", g.ID, "level", g.Level, "round", g.Round)
	return []game.LogEntry{
		game.NewEntry(game.EntryLevelUp, "system", fmt.Sprintf("The Monster is defeated! Everyone reaches level %d.", g.Level)).
			With("level", g.Level).
			With("monsterHp", g.Monster.MaxHP).
			At(game.PriorityHigh),
	}
}
