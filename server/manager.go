package server

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"warlockarena/game"
)

// DefaultRoomID 未指定房间时使用
const DefaultRoomID = "room-1"

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	ctx     context.Context
	catalog *game.Catalog
	cfg     Config
	history HistoryRecorder
}

// NewRoomManager 创建房间管理器；ctx 结束时所有房间协程退出
// history 可为 nil，此时不记录战绩
func NewRoomManager(ctx context.Context, catalog *game.Catalog, cfg Config, history HistoryRecorder) *RoomManager {
	return &RoomManager{
		rooms:   make(map[string]*Room),
		ctx:     ctx,
		catalog: catalog,
		cfg:     cfg,
		history: history,
	}
}

// GetOrCreateRoom 获取或创建房间，并确保房间协程已启动
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		r = NewRoom(id, m.catalog, RoomOptions{
			Engine:       m.cfg.Engine(),
			RoundTimeout: m.cfg.RoundTimeout,
			InputBuffer:  m.cfg.InputBuffer,
			History:      m.history,
		})
		m.rooms[id] = r
		r.StartLoop(m.ctx)
		Log.Infow("room created", "room", id)
	}
	return r
}

// Room 查找已存在的房间
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Rooms 按 ID 排序返回全部房间
func (m *RoomManager) Rooms() []*Room {
	m.mu.RLock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *RoomManager) Catalog() *game.Catalog { return m.catalog }

// Routes 注册 WebSocket、管理与监控接口；staticDir 为空时不挂载静态资源
func (m *RoomManager) Routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.HandleWS)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	mux.HandleFunc("/abilities", m.HandleAbilities)
	mux.HandleFunc("/rooms", m.HandleRooms)
	mux.HandleFunc("/admin/config", m.HandleAdminConfig)
	mux.HandleFunc("/metrics", m.HandleMetrics)
	mux.HandleFunc("/history", m.HandleHistory)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
