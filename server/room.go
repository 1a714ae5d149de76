package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"warlockarena/engine"
	"warlockarena/game"
	"warlockarena/storage"
)

var (
	ErrUnknownRace  = errors.New("unknown race")
	ErrUnknownClass = errors.New("unknown class")
	ErrUnknownInput = errors.New("unknown input")
)

// maxJournal 房间内保留的最近日志条数
const maxJournal = 1000

// HistoryRecorder 对局结束后的战绩落库
type HistoryRecorder interface {
	RecordGame(ctx context.Context, rec storage.GameRecord) error
}

// RoomOptions 创建房间的参数
type RoomOptions struct {
	Engine       engine.Config
	RoundTimeout time.Duration
	InputBuffer  int
	History      HistoryRecorder
	Rand         *rand.Rand
}

// Room 一局游戏：权威状态维护在内存，由单个协程串行推进，无需加锁
type Room struct {
	ID string

	game    *game.Game
	engine  *engine.Manager
	catalog *game.Catalog
	conns   map[game.PlayerID]*ClientConn

	inputChan chan Input
	leaveChan chan leaveRequest
	entries   []game.LogEntry

	roundTimeout time.Duration
	deadline     time.Time
	history      HistoryRecorder
	recorded     bool

	metrics  *RoomMetrics
	snapshot atomic.Pointer[RoomSnapshot]
	log      *zap.SugaredLogger

	loopStarted bool
}

// NewRoom 创建房间，初始化数据结构与房间独占的引擎
func NewRoom(id string, catalog *game.Catalog, opts RoomOptions) *Room {
	if opts.Engine == (engine.Config{}) {
		opts.Engine = engine.DefaultConfig()
	}
	if opts.RoundTimeout <= 0 {
		opts.RoundTimeout = time.Minute
	}
	if opts.InputBuffer <= 0 {
		opts.InputBuffer = 256
	}
	log := Log.With("room", id)
	engOpts := []engine.Option{engine.WithConfig(opts.Engine), engine.WithLogger(log)}
	if opts.Rand != nil {
		engOpts = append(engOpts, engine.WithRand(opts.Rand))
	}
	g := game.NewGame(id)
	r := &Room{
		ID:           id,
		game:         g,
		engine:       engine.NewManager(g, catalog, engOpts...),
		catalog:      catalog,
		conns:        make(map[game.PlayerID]*ClientConn),
		inputChan:    make(chan Input, opts.InputBuffer), // 足够缓冲，避免网络读阻塞房间协程
		leaveChan:    make(chan leaveRequest, 64),
		roundTimeout: opts.RoundTimeout,
		history:      opts.History,
		metrics:      &RoomMetrics{},
		log:          log,
	}
	r.publish()
	return r
}

// OnInput 入站输入（不立即改变状态），由房间协程处理
func (r *Room) OnInput(in Input) {
	// 不阻塞：输入拥塞时丢弃，避免读协程拖慢房间
	select {
	case r.inputChan <- in:
	default:
		r.metrics.IncChanFullDiscarded()
	}
}

type leaveRequest struct {
	pid  game.PlayerID
	conn *ClientConn
}

// RequestLeave 请求在房间协程中移除玩家，避免并发改动房间状态
// conn 为发起断开的连接；玩家已换用新连接时忽略该请求
func (r *Room) RequestLeave(pid game.PlayerID, conn *ClientConn) {
	// 为保证移除一定生效，这里采用阻塞式写入（通道有容量，避免死锁）
	r.leaveChan <- leaveRequest{pid: pid, conn: conn}
}

// Snapshot 最近一次发布的只读快照，可在任意协程读取
func (r *Room) Snapshot() RoomSnapshot {
	return *r.snapshot.Load()
}

func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Journal 最近的日志条目（仅限房间协程或测试中调用）
func (r *Room) Journal() []game.LogEntry { return r.entries }

// handle 处理一条输入；返回的错误会发回给该玩家
func (r *Room) handle(ctx context.Context, in Input) error {
	var err error
	switch in.Kind {
	case InputJoin:
		err = r.join(in)
	case InputLeave:
		r.leave(ctx, in.PlayerID, nil)
	case InputStart:
		err = r.start()
	case InputAction:
		err = r.submit(ctx, in, false)
	case InputRacial:
		err = r.submit(ctx, in, true)
	case InputConfig:
		r.applyConfig(in)
	default:
		err = ErrUnknownInput
	}
	if err != nil {
		r.metrics.IncRejected()
	}
	r.publish()
	return err
}

func (r *Room) join(in Input) error {
	if p, ok := r.game.Player(in.PlayerID); ok {
		// 同一玩家重复加入：只替换连接
		if in.Conn != nil {
			if old, ok := r.conns[p.ID]; ok && old != in.Conn {
				old.Close()
			}
			r.conns[p.ID] = in.Conn
		}
		r.broadcastState()
		return nil
	}
	race, ok := game.ParseRace(in.Race)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRace, in.Race)
	}
	class, ok := game.ParseClass(in.Class)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownClass, in.Class)
	}
	p := game.NewPlayer(in.PlayerID, in.Name, race, class)
	if err := r.engine.Enroll(p); err != nil {
		return fmt.Errorf("join %s: %w", in.PlayerID, err)
	}
	if in.Conn != nil {
		r.conns[p.ID] = in.Conn
	}
	r.log.Infow("player joined", "player", p.ID, "race", race, "class", class)
	r.broadcastState()
	return nil
}

// leave 永久移除玩家；若剩余玩家都已提交则立即结算
func (r *Room) leave(ctx context.Context, pid game.PlayerID, conn *ClientConn) {
	if conn != nil && r.conns[pid] != conn {
		// 未加入或已被替换的连接：只关闭它自己的发送队列
		conn.Close()
		return
	}
	if c, ok := r.conns[pid]; ok {
		c.Close()
		delete(r.conns, pid)
	}
	if _, ok := r.game.Player(pid); !ok {
		return
	}
	wasOver := r.game.IsGameOver()
	r.game.RemovePlayer(pid)
	r.log.Infow("player left", "player", pid)
	if !r.game.Started || wasOver {
		r.broadcastState()
		return
	}
	if winner := r.game.WinCondition(); winner != game.WinNone {
		// 离开导致胜负已分，不再等待下一回合
		r.deliver([]game.LogEntry{game.NewEntry(game.EntryGameOver, "system", "The game ends as players leave.").
			With("winner", string(winner)).
			At(game.PrioritySystem)})
		r.record(ctx, engine.RoundOutcome{Round: r.game.Round, Level: r.game.Level, Winner: winner, GameOver: true})
		r.broadcastState()
		return
	}
	if r.game.AllSubmitted() {
		r.resolveRound(ctx)
		return
	}
	r.broadcastState()
}

func (r *Room) start() error {
	entries, err := r.engine.Start()
	if err != nil {
		return err
	}
	r.deadline = time.Now().Add(r.roundTimeout)
	r.deliver(entries)
	r.broadcastState()
	return nil
}

func (r *Room) submit(ctx context.Context, in Input, racial bool) error {
	if !r.game.Started {
		return engine.ErrNotStarted
	}
	if r.game.IsGameOver() {
		return engine.ErrGameOver
	}
	if err := r.game.Submit(in.PlayerID, in.AbilityID, in.TargetID, racial); err != nil {
		return err
	}
	r.metrics.IncAccepted()
	if r.game.AllSubmitted() {
		r.resolveRound(ctx)
		return nil
	}
	r.broadcastState()
	return nil
}

func (r *Room) applyConfig(in Input) {
	if in.Engine != nil {
		r.engine.SetConfig(*in.Engine)
	}
	if in.RoundTimeout > 0 {
		r.roundTimeout = in.RoundTimeout
	}
	r.log.Infow("config updated", "engine", r.engine.Config(), "roundTimeout", r.roundTimeout)
}

// resolveRound 结算当前回合、下发日志并重置截止时间
func (r *Room) resolveRound(ctx context.Context) {
	start := time.Now()
	out, err := r.engine.Round(ctx)
	if err != nil {
		r.log.Warnw("round not resolved", "error", err)
		r.deadline = time.Now().Add(r.roundTimeout)
		return
	}
	failed := 0
	for _, e := range out.Entries {
		if e.Type == game.EntryFailure {
			failed++
		}
	}
	r.metrics.AddRound(time.Since(start).Nanoseconds(), len(out.Entries), failed)
	r.deliver(out.Entries)
	if out.GameOver {
		r.record(ctx, out)
	} else {
		r.deadline = time.Now().Add(r.roundTimeout)
	}
	r.broadcastState()
}

func (r *Room) record(ctx context.Context, out engine.RoundOutcome) {
	if r.history == nil || r.recorded {
		return
	}
	rec := storage.GameRecord{
		GameID:  r.game.ID + "-" + uuid.NewString(),
		Winner:  string(out.Winner),
		Level:   out.Level,
		Rounds:  out.Round,
		EndedAt: time.Now(),
	}
	for _, p := range r.game.Roster() {
		rec.Players = append(rec.Players, storage.PlayerRecord{
			ID:      string(p.ID),
			Name:    p.Name,
			Race:    string(p.Race),
			Class:   string(p.Class),
			Warlock: p.IsWarlock,
			Alive:   p.Alive,
		})
	}
	if err := r.history.RecordGame(ctx, rec); err != nil {
		r.log.Errorw("record game failed", "error", err)
		return
	}
	r.recorded = true
}

// deliver 按可见性把日志条目发给每个玩家
func (r *Room) deliver(entries []game.LogEntry) {
	r.entries = append(r.entries, entries...)
	if n := len(r.entries); n > maxJournal {
		r.entries = append([]game.LogEntry(nil), r.entries[n-maxJournal:]...)
	}
	for pid, c := range r.conns {
		visible := make([]game.LogEntry, 0, len(entries))
		for _, e := range entries {
			if e.VisibleTo(pid) {
				visible = append(visible, e)
			}
		}
		if len(visible) == 0 {
			continue
		}
		r.send(c, map[string]any{"type": "log", "round": r.game.Round, "entries": visible})
	}
}

// broadcastState 公开状态 + 每个玩家自己的私有信息
func (r *Room) broadcastState() {
	snap := r.buildSnapshot()
	for pid, c := range r.conns {
		payload := map[string]any{"type": "state", "state": snap}
		if p, ok := r.game.Player(pid); ok {
			payload["self"] = selfState(p, r.catalog)
		}
		r.send(c, payload)
	}
}

func (r *Room) sendError(c *ClientConn, err error) {
	r.send(c, map[string]any{"type": "error", "message": err.Error()})
}

func (r *Room) send(c *ClientConn, payload any) {
	if c == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		r.log.Errorw("encode payload failed", "error", err)
		return
	}
	c.Enqueue(b)
}

func (r *Room) buildSnapshot() RoomSnapshot {
	g := r.game
	snap := RoomSnapshot{
		ID:      r.ID,
		Round:   g.Round,
		Level:   g.Level,
		Started: g.Started,
		Winner:  g.WinCondition(),
		Phase:   r.engine.Phase(),
		Players: make([]PlayerState, 0, len(g.Players)),
		Config:  r.engine.Config(),
	}
	for _, p := range g.Roster() {
		snap.Players = append(snap.Players, playerState(p))
	}
	m := g.Monster
	snap.Monster = MonsterState{HP: m.HP, MaxHP: m.MaxHP, Level: m.Level, Age: m.Age, Alive: m.Alive, Effects: m.Effects.Snapshot()}
	return snap
}

// publish 发布快照给其他协程（管理接口）读取
func (r *Room) publish() {
	snap := r.buildSnapshot()
	r.snapshot.Store(&snap)
}
