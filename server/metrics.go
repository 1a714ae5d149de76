package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	RoundsResolved    int64 // 已结算回合数
	ActionsAccepted   int64 // 被接受的行动数
	ActionsRejected   int64 // 提交阶段被拒绝的输入数
	ActionsFailed     int64 // 结算阶段失败的行动数
	EntriesEmitted    int64 // 产生的日志条目数
	DeadlineRounds    int64 // 因超时而强制结算的回合数
	ChanFullDiscarded int64 // 因通道满被丢弃的输入数
	TotalRoundNs      int64 // 回合结算累计耗时（纳秒）
}

func (m *RoomMetrics) IncAccepted()          { atomic.AddInt64(&m.ActionsAccepted, 1) }
func (m *RoomMetrics) IncRejected()          { atomic.AddInt64(&m.ActionsRejected, 1) }
func (m *RoomMetrics) IncDeadline()          { atomic.AddInt64(&m.DeadlineRounds, 1) }
func (m *RoomMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *RoomMetrics) AddRound(ns int64, entries, failed int) {
	atomic.AddInt64(&m.RoundsResolved, 1)
	atomic.AddInt64(&m.TotalRoundNs, ns)
	atomic.AddInt64(&m.EntriesEmitted, int64(entries))
	atomic.AddInt64(&m.ActionsFailed, int64(failed))
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	rounds := atomic.LoadInt64(&m.RoundsResolved)
	total := atomic.LoadInt64(&m.TotalRoundNs)
	var avgMs float64
	if rounds > 0 {
		avgMs = float64(total) / float64(rounds) / 1e6
	}
	return map[string]any{
		"rounds_resolved":     rounds,
		"actions_accepted":    atomic.LoadInt64(&m.ActionsAccepted),
		"actions_rejected":    atomic.LoadInt64(&m.ActionsRejected),
		"actions_failed":      atomic.LoadInt64(&m.ActionsFailed),
		"entries_emitted":     atomic.LoadInt64(&m.EntriesEmitted),
		"deadline_rounds":     atomic.LoadInt64(&m.DeadlineRounds),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"avg_round_ms":        avgMs,
	}
}
