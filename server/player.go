package server

import (
	"warlockarena/engine"
	"warlockarena/game"
)

// PlayerState 为广播给客户端的公开玩家状态（不含术士身份）
type PlayerState struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Race    string              `json:"race"`
	Class   string              `json:"class"`
	Level   int                 `json:"level"`
	HP      int                 `json:"hp"`
	MaxHP   int                 `json:"maxHp"`
	Alive   bool                `json:"alive"`
	Ready   bool                `json:"ready"`
	Effects []game.StatusEffect `json:"effects"`
}

// MonsterState 怪物的公开状态
type MonsterState struct {
	HP      int                 `json:"hp"`
	MaxHP   int                 `json:"maxHp"`
	Level   int                 `json:"level"`
	Age     int                 `json:"age"`
	Alive   bool                `json:"alive"`
	Effects []game.StatusEffect `json:"effects"`
}

// SelfState 只发给玩家本人的私有信息
type SelfState struct {
	ID        string         `json:"id"`
	IsWarlock bool           `json:"isWarlock"`
	Abilities []string       `json:"abilities"`
	Racial    string         `json:"racial,omitempty"`
	Cooldowns map[string]int `json:"cooldowns"`
}

// RoomSnapshot 房间只读快照，供广播与管理接口使用
type RoomSnapshot struct {
	ID      string            `json:"id"`
	Round   int               `json:"round"`
	Level   int               `json:"level"`
	Started bool              `json:"started"`
	Winner  game.WinCondition `json:"winner,omitempty"`
	Phase   string            `json:"phase"`
	Players []PlayerState     `json:"players"`
	Monster MonsterState      `json:"monster"`
	Config  engine.Config     `json:"config"`
}

func playerState(p *game.Player) PlayerState {
	return PlayerState{
		ID:      string(p.ID),
		Name:    p.Name,
		Race:    string(p.Race),
		Class:   string(p.Class),
		Level:   p.Level,
		HP:      p.HP,
		MaxHP:   p.MaxHP,
		Alive:   p.Alive,
		Ready:   p.Pending != nil,
		Effects: p.Effects.Snapshot(),
	}
}

func selfState(p *game.Player, catalog *game.Catalog) SelfState {
	s := SelfState{
		ID:        string(p.ID),
		IsWarlock: p.IsWarlock,
		Abilities: append([]string(nil), p.Abilities...),
		Cooldowns: make(map[string]int, len(p.Cooldowns)+1),
	}
	for id, cd := range p.Cooldowns {
		s.Cooldowns[id] = cd
	}
	if a, ok := catalog.RacialFor(p.Race); ok {
		s.Racial = a.ID
		if p.Racial.Cooldown > 0 {
			s.Cooldowns[a.ID] = p.Racial.Cooldown
		}
	}
	return s
}
