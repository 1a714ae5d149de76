package server

import (
	"time"

	"warlockarena/engine"
	"warlockarena/game"
)

// InputKind 房间输入类型
type InputKind int

const (
	InputJoin InputKind = iota
	InputLeave
	InputStart
	InputAction
	InputRacial
	InputConfig
)

// Input 客户端输入（意图），由房间协程串行处理
type Input struct {
	Kind     InputKind
	PlayerID game.PlayerID

	// join
	Name  string
	Race  string
	Class string
	Conn  *ClientConn

	// action / racial
	AbilityID string
	TargetID  string

	// config
	Engine       *engine.Config
	RoundTimeout time.Duration
}

// 入站输入的 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"action","abilityId":"fireball","targetId":"monster"}
type InputMessage struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Race      string `json:"race,omitempty"`
	Class     string `json:"class,omitempty"`
	AbilityID string `json:"abilityId,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
}
