package server

import (
	"context"
	"time"
)

// deadlineCheckInterval 回合截止检查频率
var deadlineCheckInterval = 250 * time.Millisecond

// StartLoop 启动房间协程：输入、离开与回合截止都在同一协程中串行处理
func (r *Room) StartLoop(ctx context.Context) {
	if r.loopStarted {
		return
	}
	r.loopStarted = true
	go r.run(ctx)
}

func (r *Room) run(ctx context.Context) {
	ticker := time.NewTicker(deadlineCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return
		case req := <-r.leaveChan:
			r.leave(ctx, req.pid, req.conn)
			r.publish()
		case in := <-r.inputChan:
			if err := r.handle(ctx, in); err != nil {
				r.log.Debugw("input rejected", "player", in.PlayerID, "kind", in.Kind, "error", err)
				conn := in.Conn
				if conn == nil {
					conn = r.conns[in.PlayerID]
				}
				r.sendError(conn, err)
			}
		case now := <-ticker.C:
			r.checkDeadline(ctx, now)
		}
	}
}

// checkDeadline 超时未提交的玩家视为放弃本回合行动，强制结算
func (r *Room) checkDeadline(ctx context.Context, now time.Time) {
	g := r.game
	if !g.Started || g.IsGameOver() || r.deadline.IsZero() || now.Before(r.deadline) {
		return
	}
	r.metrics.IncDeadline()
	r.log.Infow("round deadline reached", "round", g.Round+1)
	r.resolveRound(ctx)
	r.publish()
}

func (r *Room) shutdown() {
	for pid, c := range r.conns {
		c.Close()
		delete(r.conns, pid)
	}
	r.log.Infow("room stopped")
}
