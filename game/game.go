package game

import (
	"errors"
	"sort"
)

var (
	ErrDuplicatePlayer = errors.New("player already in game")
	ErrUnknownPlayer   = errors.New("player not in game")
	ErrPlayerDead      = errors.New("player is dead")
)

// WinCondition 对局结果
type WinCondition string

const (
	WinNone     WinCondition = ""
	WinGood     WinCondition = "good"
	WinWarlocks WinCondition = "warlocks"
	WinDraw     WinCondition = "draw"
)

// Game 一个房间的对局状态，由该房间独占，无需加锁
type Game struct {
	ID      string
	Players map[PlayerID]*Player
	Monster *Monster
	Level   int
	Round   int
	Started bool

	order []PlayerID // 加入顺序，保证遍历确定性
	seq   int
}

// NewGame 创建对局
func NewGame(id string) *Game {
	return &Game{
		ID:      id,
		Players: make(map[PlayerID]*Player),
		Monster: &Monster{Vitals: Vitals{Alive: true, Effects: make(StatusMap)}, Level: 1},
		Level:   1,
	}
}

// AddPlayer 加入玩家
func (g *Game) AddPlayer(p *Player) error {
	if _, ok := g.Players[p.ID]; ok {
		return ErrDuplicatePlayer
	}
	g.Players[p.ID] = p
	g.order = append(g.order, p.ID)
	return nil
}

// RemovePlayer 永久移除玩家（断线不再重连）
func (g *Game) RemovePlayer(id PlayerID) {
	if _, ok := g.Players[id]; !ok {
		return
	}
	delete(g.Players, id)
	for i, pid := range g.order {
		if pid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Player 按 ID 查找玩家
func (g *Game) Player(id PlayerID) (*Player, bool) {
	p, ok := g.Players[id]
	return p, ok
}

// Roster 按加入顺序返回全部玩家
func (g *Game) Roster() []*Player {
	out := make([]*Player, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.Players[id])
	}
	return out
}

// AlivePlayers 按加入顺序返回存活玩家
func (g *Game) AlivePlayers() []*Player {
	out := make([]*Player, 0, len(g.order))
	for _, id := range g.order {
		if p := g.Players[id]; p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// Target 按目标 ID 查找玩家或怪物
func (g *Game) Target(id string) (Combatant, bool) {
	if id == MonsterID {
		if g.Monster == nil {
			return nil, false
		}
		return g.Monster, true
	}
	p, ok := g.Players[PlayerID(id)]
	if !ok {
		return nil, false
	}
	return p, true
}

// Submit 记录玩家本回合的行动；种族技能占用独立的槽位
func (g *Game) Submit(actor PlayerID, abilityID, targetID string, racial bool) error {
	p, ok := g.Players[actor]
	if !ok {
		return ErrUnknownPlayer
	}
	if !p.Alive {
		return ErrPlayerDead
	}
	g.seq++
	a := &PendingAction{ActorID: actor, AbilityID: abilityID, TargetID: targetID, Seq: g.seq, Racial: racial}
	if racial {
		p.PendingRacial = a
	} else {
		p.Pending = a
	}
	return nil
}

// AllSubmitted 存活玩家是否都已提交职业行动
func (g *Game) AllSubmitted() bool {
	alive := g.AlivePlayers()
	if len(alive) == 0 {
		return false
	}
	for _, p := range alive {
		if p.Pending == nil {
			return false
		}
	}
	return true
}

// CollectActions 取出并清空所有玩家的待结算行动，按提交顺序排列
func (g *Game) CollectActions() []PendingAction {
	var out []PendingAction
	for _, p := range g.Roster() {
		if p.Pending != nil {
			out = append(out, *p.Pending)
			p.Pending = nil
		}
		if p.PendingRacial != nil {
			out = append(out, *p.PendingRacial)
			p.PendingRacial = nil
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// WinCondition 判定胜负：无存活术士则好人胜，存活者全是术士则术士胜，无人存活为平局
func (g *Game) WinCondition() WinCondition {
	if !g.Started {
		return WinNone
	}
	alive := g.AlivePlayers()
	if len(alive) == 0 {
		return WinDraw
	}
	warlocks := 0
	for _, p := range alive {
		if p.IsWarlock {
			warlocks++
		}
	}
	switch {
	case warlocks == 0:
		return WinGood
	case warlocks == len(alive):
		return WinWarlocks
	default:
		return WinNone
	}
}

// IsGameOver 对局是否已结束
func (g *Game) IsGameOver() bool {
	return g.WinCondition() != WinNone
}
