// Package storage 对局结束后的战绩记录（SQLite）
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

var ErrAlreadyRecorded = errors.New("game already recorded")

// PlayerRecord 对局结束时的玩家快照
type PlayerRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Race    string `json:"race"`
	Class   string `json:"class"`
	Warlock bool   `json:"warlock"`
	Alive   bool   `json:"alive"`
}

// GameRecord 一局对局的结果
type GameRecord struct {
	GameID  string         `json:"gameId"`
	Winner  string         `json:"winner"`
	Level   int            `json:"level"`
	Rounds  int            `json:"rounds"`
	EndedAt time.Time      `json:"endedAt"`
	Players []PlayerRecord `json:"players"`
}

// Store SQLite 战绩存储
type Store struct {
	db *sql.DB
}

// Open 打开数据库并建表；path 为 ":memory:" 时使用内存库
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite 单写者；内存库也要求只有一个连接
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordGame 在一个事务中写入对局与玩家
func (s *Store) RecordGame(ctx context.Context, rec GameRecord) error {
	if strings.TrimSpace(rec.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE game_id = ?`, rec.GameID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check game: %w", err)
	}
	if exists > 0 {
		return ErrAlreadyRecorded
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (game_id, winner, level, rounds, ended_at) VALUES (?, ?, ?, ?, ?)`,
		rec.GameID, rec.Winner, rec.Level, rec.Rounds, rec.EndedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	for _, p := range rec.Players {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO game_players (game_id, player_id, name, race, class, warlock, alive) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.GameID, p.ID, p.Name, p.Race, p.Class, boolInt(p.Warlock), boolInt(p.Alive),
		)
		if err != nil {
			return fmt.Errorf("insert player %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// RecentGames 按结束时间倒序返回最近的对局
func (s *Store) RecentGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, winner, level, rounds, ended_at FROM games ORDER BY ended_at DESC, game_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	var out []GameRecord
	for rows.Next() {
		var rec GameRecord
		var ended int64
		if err := rows.Scan(&rec.GameID, &rec.Winner, &rec.Level, &rec.Rounds, &ended); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.EndedAt = time.UnixMilli(ended).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// 单连接下必须先关闭外层结果集再查询玩家
	for i := range out {
		players, err := s.players(ctx, out[i].GameID)
		if err != nil {
			return nil, err
		}
		out[i].Players = players
	}
	return out, nil
}

func (s *Store) players(ctx context.Context, gameID string) ([]PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, name, race, class, warlock, alive FROM game_players WHERE game_id = ? ORDER BY player_id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()
	var out []PlayerRecord
	for rows.Next() {
		var p PlayerRecord
		var warlock, alive int
		if err := rows.Scan(&p.ID, &p.Name, &p.Race, &p.Class, &warlock, &alive); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Warlock, p.Alive = warlock != 0, alive != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
