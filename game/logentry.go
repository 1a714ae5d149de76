package game

import (
	"time"

	"github.com/google/uuid"
)

// EntryType 日志条目类型
type EntryType string

const (
	EntryAction       EntryType = "action"
	EntryDamage       EntryType = "damage"
	EntryHeal         EntryType = "heal"
	EntryStatus       EntryType = "status"
	EntryTick         EntryType = "tick"
	EntryFailure      EntryType = "failure"
	EntryDeath        EntryType = "death"
	EntryDetect       EntryType = "detect"
	EntryMonster      EntryType = "monster"
	EntryLevelUp      EntryType = "level_up"
	EntryRound        EntryType = "round"
	EntryGameOver     EntryType = "game_over"
	EntrySystem       EntryType = "system"
	EntryCoordination EntryType = "coordination"
)

// Priority 客户端展示优先级
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PrioritySystem Priority = "system"
)

// LogEntry 结算过程中产生的结构化日志，由广播层发送给客户端
type LogEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EntryType      `json:"type"`
	Source    string         `json:"source"`
	Target    string         `json:"target,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Public    bool           `json:"public"`
	Viewer    string         `json:"viewer,omitempty"` // 非空时只有该玩家可见
	Priority  Priority       `json:"priority"`
}

// NewEntry 唯一的日志条目构造入口，保证 id、时间戳、类型与可见性齐全
func NewEntry(typ EntryType, source, message string) LogEntry {
	return LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      typ,
		Source:    source,
		Message:   message,
		Public:    true,
		Priority:  PriorityMedium,
	}
}

// To 设置目标
func (e LogEntry) To(target string) LogEntry {
	e.Target = target
	return e
}

// With 追加一个细节字段
func (e LogEntry) With(key string, value any) LogEntry {
	d := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		d[k] = v
	}
	d[key] = value
	e.Details = d
	return e
}

// Private 仅对来源与目标玩家可见
func (e LogEntry) Private() LogEntry {
	e.Public = false
	return e
}

// PrivateTo 只对指定玩家可见，来源与目标也不例外
func (e LogEntry) PrivateTo(viewer string) LogEntry {
	e.Public = false
	e.Viewer = viewer
	return e
}

// At 设置优先级
func (e LogEntry) At(p Priority) LogEntry {
	e.Priority = p
	return e
}

// Failure 行动失败条目，details.reason 带原因码
func Failure(source, target string, reason Reason, message string) LogEntry {
	return NewEntry(EntryFailure, source, message).
		To(target).
		With("reason", string(reason)).
		At(PriorityLow)
}

// Reason 读取失败条目中的原因码
func (e LogEntry) Reason() Reason {
	if r, ok := e.Details["reason"].(string); ok {
		return Reason(r)
	}
	return ""
}

// VisibleTo 条目是否应发送给指定玩家
func (e LogEntry) VisibleTo(id PlayerID) bool {
	if e.Viewer != "" {
		return e.Viewer == string(id)
	}
	return e.Public || e.Source == string(id) || e.Target == string(id)
}
