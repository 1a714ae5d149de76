package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"warlockarena/engine"
	"warlockarena/storage"
)

// HistoryLister 战绩查询，由 storage.Store 实现
type HistoryLister interface {
	RecentGames(ctx context.Context, limit int) ([]storage.GameRecord, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func roomParam(r *http.Request) string {
	if id := r.URL.Query().Get("room"); id != "" {
		return id
	}
	return DefaultRoomID
}

// HandleAbilities 返回技能目录
// GET /abilities
func (m *RoomManager) HandleAbilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, m.catalog.All())
}

// HandleRooms 列出全部房间的快照
// GET /rooms
func (m *RoomManager) HandleRooms(w http.ResponseWriter, r *http.Request) {
	rooms := m.Rooms()
	out := make([]RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

// configUpdate 以当前配置为底，只覆盖请求中出现的字段
type configUpdate struct {
	engine.Config
	RoundTimeoutMs int `json:"roundTimeoutMs,omitempty"`
}

// HandleAdminConfig 提供房间结算参数的读取与热更新
// GET /admin/config?room=room-1  返回当前配置
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段，下一回合生效
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	roomID := roomParam(r)
	switch r.Method {
	case http.MethodGet:
		room, ok := m.Room(roomID)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, room.Snapshot().Config)
	case http.MethodPost:
		room := m.GetOrCreateRoom(roomID)
		body := configUpdate{Config: room.Snapshot().Config}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := body.Config.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.RoundTimeoutMs < 0 {
			http.Error(w, "roundTimeoutMs must be >= 0", http.StatusBadRequest)
			return
		}
		cfg := body.Config
		room.OnInput(Input{
			Kind:         InputConfig,
			Engine:       &cfg,
			RoundTimeout: time.Duration(body.RoundTimeoutMs) * time.Millisecond,
		})
		Log.Infow("config update queued", "room", roomID, "engine", cfg, "roundTimeoutMs", body.RoundTimeoutMs)
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "config": cfg})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=room-1
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := roomParam(r)
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	snap := room.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"room":    roomID,
		"round":   snap.Round,
		"level":   snap.Level,
		"phase":   snap.Phase,
		"metrics": room.Metrics().Snapshot(),
	})
}

// HandleHistory 最近结束的对局
// GET /history?limit=20
func (m *RoomManager) HandleHistory(w http.ResponseWriter, r *http.Request) {
	lister, ok := m.history.(HistoryLister)
	if !ok {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	games, err := lister.RecentGames(r.Context(), limit)
	if err != nil {
		Log.Errorw("load history failed", "error", err)
		http.Error(w, "load history failed", http.StatusInternalServerError)
		return
	}
	if games == nil {
		games = []storage.GameRecord{}
	}
	writeJSON(w, http.StatusOK, games)
}
