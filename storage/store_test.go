package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndListGames(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.RecordGame(ctx, GameRecord{
		GameID: "g1", Winner: "good", Level: 2, Rounds: 9, EndedAt: base,
		Players: []PlayerRecord{
			{ID: "b", Name: "Bob", Race: "dwarf", Class: "priest", Alive: true},
			{ID: "a", Name: "Ann", Race: "elf", Class: "wizard", Warlock: true},
		},
	}))
	require.NoError(t, s.RecordGame(ctx, GameRecord{GameID: "g2", Winner: "draw", Level: 1, Rounds: 3, EndedAt: base.Add(time.Hour)}))

	games, err := s.RecentGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "g2", games[0].GameID)
	assert.Empty(t, games[0].Players)

	g1 := games[1]
	assert.Equal(t, "good", g1.Winner)
	assert.Equal(t, 2, g1.Level)
	assert.Equal(t, 9, g1.Rounds)
	assert.True(t, base.Equal(g1.EndedAt))
	require.Len(t, g1.Players, 2)
	assert.Equal(t, PlayerRecord{ID: "a", Name: "Ann", Race: "elf", Class: "wizard", Warlock: true}, g1.Players[0])
	assert.True(t, g1.Players[1].Alive)

	games, err = s.RecentGames(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, games, 1)
}

func TestRecordGameTwice(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec := GameRecord{GameID: "g1", Winner: "warlocks"}
	require.NoError(t, s.RecordGame(ctx, rec))
	assert.ErrorIs(t, s.RecordGame(ctx, rec), ErrAlreadyRecorded)
	assert.Error(t, s.RecordGame(ctx, GameRecord{}))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
