package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"warlockarena/game"
)

func TestScalePlayer(t *testing.T) {
	cfg := DefaultConfig()
	p := game.NewPlayer("p", "", game.RaceHuman, game.ClassWarrior)

	ScalePlayer(p, 1, cfg)
	assert.Equal(t, 120, p.MaxHP)
	assert.Equal(t, 2, p.Armor)
	assert.InDelta(t, 1.0, p.DamageMod, 1e-9)

	ScalePlayer(p, 2, cfg)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 144, p.MaxHP)
	assert.InDelta(t, 1.25, p.DamageMod, 1e-9)

	p.HP = 144
	ScalePlayer(p, 1, cfg)
	assert.Equal(t, 120, p.HP, "hp is clamped to the new maximum")
}

func TestSpawnMonster(t *testing.T) {
	cfg := DefaultConfig()
	m := &game.Monster{Age: 7}
	m.Effects = game.StatusMap{game.StatusStunned: {Name: game.StatusStunned, Turns: 1}}

	SpawnMonster(m, 3, cfg)
	assert.Equal(t, 200, m.MaxHP)
	assert.Equal(t, 200, m.HP)
	assert.Equal(t, 20, m.Damage)
	assert.Zero(t, m.Age)
	assert.True(t, m.Alive)
	assert.Empty(t, m.Effects)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.MaxArmorReduction = 1.5
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = DefaultConfig()
	bad.CoordinationBonus = -0.1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}
