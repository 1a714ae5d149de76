package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warlockarena/game"
)

func TestStatusApplyRefreshes(t *testing.T) {
	s := NewStatusStore(testCalculator())
	p := testPlayer("p", 100)

	res := s.Apply(p, game.StatusEffect{Name: game.StatusShielded, Type: game.Buff, Turns: 1, Amount: 2})
	assert.True(t, res.Success)
	assert.False(t, res.Refreshed)

	res = s.Apply(p, game.StatusEffect{Name: game.StatusShielded, Type: game.Buff, Turns: 3, Amount: 5})
	assert.True(t, res.Refreshed)
	e, ok := s.Get(p, game.StatusShielded)
	require.True(t, ok)
	assert.Equal(t, 3, e.Turns)
	assert.Equal(t, 5, e.Amount)
	assert.Len(t, p.Effects, 1)
}

func TestStatusApplyRejects(t *testing.T) {
	s := NewStatusStore(testCalculator())
	p := testPlayer("p", 100)
	assert.False(t, s.Apply(p, game.StatusEffect{Name: game.StatusStunned}).Success, "zero turns")

	p.Alive = false
	assert.False(t, s.Apply(p, game.StatusEffect{Name: game.StatusStunned, Turns: 1}).Success, "dead target")
}

func TestPoisonTicksAndExpires(t *testing.T) {
	s := NewStatusStore(testCalculator())
	p := testPlayer("p", 100)
	p.Armor = 5
	s.Apply(p, game.StatusEffect{Name: game.StatusPoisoned, Type: game.Debuff, Turns: 2, Amount: 8})

	ticks := s.Process(p)
	require.Len(t, ticks, 1)
	assert.Equal(t, 8, ticks[0].Damage, "armor does not reduce poison")
	assert.False(t, ticks[0].Ended)
	assert.Equal(t, 92, p.HP)

	ticks = s.Process(p)
	require.Len(t, ticks, 1)
	assert.True(t, ticks[0].Ended)
	assert.Equal(t, 84, p.HP)
	assert.False(t, s.Has(p, game.StatusPoisoned))

	assert.Empty(t, s.Process(p))
}

func TestPoisonTickCanKill(t *testing.T) {
	s := NewStatusStore(testCalculator())
	p := testPlayer("p", 100)
	p.HP = 5
	s.Apply(p, game.StatusEffect{Name: game.StatusPoisoned, Turns: 3, Amount: 8})

	ticks := s.Process(p)
	require.Len(t, ticks, 1)
	assert.True(t, ticks[0].Killed)
	assert.False(t, p.Alive)
}

func TestRegenerationTicks(t *testing.T) {
	s := NewStatusStore(testCalculator())
	p := testPlayer("p", 100)
	p.HP = 95
	s.Apply(p, game.StatusEffect{Name: game.StatusRegenerating, Turns: 1, Amount: 10})

	ticks := s.Process(p)
	require.Len(t, ticks, 1)
	assert.Equal(t, 5, ticks[0].Healing)
	assert.True(t, ticks[0].Ended)
	assert.Equal(t, 100, p.HP)
}

func TestStatusRemoveAndClear(t *testing.T) {
	s := NewStatusStore(testCalculator())
	p := testPlayer("p", 100)
	s.Apply(p, game.StatusEffect{Name: game.StatusStunned, Turns: 1})
	s.Apply(p, game.StatusEffect{Name: game.StatusEnraged, Turns: 1, Multiplier: 2})

	assert.True(t, s.Remove(p, game.StatusStunned))
	assert.False(t, s.Remove(p, game.StatusStunned))
	s.Clear(p)
	assert.Empty(t, p.Effects)
}
