package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, ids ...PlayerID) *Game {
	t.Helper()
	g := NewGame("g1")
	for _, id := range ids {
		require.NoError(t, g.AddPlayer(NewPlayer(id, "", RaceHuman, ClassWarrior)))
	}
	return g
}

func TestAddAndRemovePlayers(t *testing.T) {
	g := newTestGame(t, "a", "b", "c")
	assert.ErrorIs(t, g.AddPlayer(NewPlayer("a", "", RaceElf, ClassWizard)), ErrDuplicatePlayer)

	g.RemovePlayer("b")
	g.RemovePlayer("missing")
	ids := []PlayerID{}
	for _, p := range g.Roster() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []PlayerID{"a", "c"}, ids)
	_, ok := g.Player("b")
	assert.False(t, ok)
}

func TestTargetLookup(t *testing.T) {
	g := newTestGame(t, "a")
	m, ok := g.Target(MonsterID)
	require.True(t, ok)
	assert.Equal(t, "Monster", m.Label())

	p, ok := g.Target("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.TargetID())

	_, ok = g.Target("nobody")
	assert.False(t, ok)
}

func TestSubmitAndCollect(t *testing.T) {
	g := newTestGame(t, "a", "b")
	assert.ErrorIs(t, g.Submit("x", "slash", MonsterID, false), ErrUnknownPlayer)

	require.NoError(t, g.Submit("b", "slash", MonsterID, false))
	assert.False(t, g.AllSubmitted())
	require.NoError(t, g.Submit("a", "slash", MonsterID, false))
	require.NoError(t, g.Submit("a", "secondWind", "", true))
	// 重复提交覆盖旧行动
	require.NoError(t, g.Submit("b", "slash", "a", false))
	assert.True(t, g.AllSubmitted())

	actions := g.CollectActions()
	require.Len(t, actions, 3)
	assert.Equal(t, PlayerID("a"), actions[0].ActorID)
	assert.Equal(t, "secondWind", actions[1].AbilityID)
	assert.True(t, actions[1].Racial)
	assert.False(t, actions[0].Racial)
	assert.Equal(t, "a", actions[2].TargetID)
	assert.Empty(t, g.CollectActions())
	assert.False(t, g.AllSubmitted())
}

func TestSubmitDeadPlayer(t *testing.T) {
	g := newTestGame(t, "a", "b")
	p, _ := g.Player("a")
	p.Alive = false
	assert.ErrorIs(t, g.Submit("a", "slash", MonsterID, false), ErrPlayerDead)

	// 死亡玩家不参与"全部提交"判定
	require.NoError(t, g.Submit("b", "slash", MonsterID, false))
	assert.True(t, g.AllSubmitted())
}

func TestWinCondition(t *testing.T) {
	g := newTestGame(t, "a", "b", "c")
	assert.Equal(t, WinNone, g.WinCondition(), "not started")

	g.Started = true
	a, _ := g.Player("a")
	b, _ := g.Player("b")
	c, _ := g.Player("c")
	a.IsWarlock = true
	assert.Equal(t, WinNone, g.WinCondition())
	assert.False(t, g.IsGameOver())

	a.Alive = false
	assert.Equal(t, WinGood, g.WinCondition())

	a.Alive = true
	b.Alive, c.Alive = false, false
	assert.Equal(t, WinWarlocks, g.WinCondition())

	a.Alive = false
	assert.Equal(t, WinDraw, g.WinCondition())
	assert.True(t, g.IsGameOver())
}
