package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"warlockarena/game"
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		// 慢客户端丢消息，不阻塞房间协程；下一次状态广播会补齐
	}
}

// Close 关闭底层连接与发送队列，只能在房间协程中调用
func (c *ClientConn) Close() {
	if c.send != nil {
		// 关闭发送通道以结束写协程
		close(c.send)
		c.send = nil
	}
	if c.ws != nil {
		_ = c.ws.Close()
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump(send <-chan []byte) {
	defer c.ws.Close()
	for msg := range send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump 读取客户端输入，转换为 Input 注入房间
func (c *ClientConn) readPump(room *Room, playerID game.PlayerID) {
	defer c.ws.Close()
	// 读泵退出时，通知房间在房间协程中移除该玩家
	defer room.RequestLeave(playerID, c)
	c.ws.SetReadLimit(1 << 16)
	_ = c.ws.SetReadDeadline(time.Now().Add(5 * time.Minute))

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(5 * time.Minute))
		var im InputMessage
		if err := json.Unmarshal(payload, &im); err != nil {
			continue
		}
		in, ok := im.toInput(playerID)
		if !ok {
			continue
		}
		if in.Kind == InputJoin {
			in.Conn = c
		}
		room.OnInput(in)
	}
}

// toInput 把客户端消息转换为房间输入
func (im InputMessage) toInput(pid game.PlayerID) (Input, bool) {
	in := Input{PlayerID: pid, AbilityID: im.AbilityID, TargetID: im.TargetID}
	switch strings.ToLower(im.Type) {
	case "join":
		in.Kind = InputJoin
		in.Name, in.Race, in.Class = im.Name, im.Race, im.Class
		if in.Name == "" {
			in.Name = string(pid)
		}
	case "start":
		in.Kind = InputStart
	case "action":
		in.Kind = InputAction
	case "racial":
		in.Kind = InputRacial
	case "leave":
		in.Kind = InputLeave
	default:
		return Input{}, false
	}
	return in, true
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：?room=room-1&player=alice
// 连接建立后客户端需先发送 join 消息选择种族与职业
func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = DefaultRoomID
	}
	playerID := r.URL.Query().Get("player")
	if playerID == "" || playerID == game.MonsterID {
		http.Error(w, "missing or reserved player query", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade error", "error", err)
		return
	}

	room := m.GetOrCreateRoom(roomID)
	client := NewClientConn(ws)
	Log.Infow("ws connected", "room", roomID, "player", playerID, "remote", r.RemoteAddr)

	go client.writePump(client.send)
	go client.readPump(room, game.PlayerID(playerID))
}
