package cmd

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warlockarena/game"
)

func TestSimulateRunsToCompletion(t *testing.T) {
	catalog, err := game.DefaultCatalog()
	require.NoError(t, err)

	var out bytes.Buffer
	winner, err := simulate(context.Background(), catalog, 4, 200, rand.New(rand.NewSource(42)), &out, false)
	require.NoError(t, err)
	assert.Contains(t, []game.WinCondition{game.WinNone, game.WinGood, game.WinWarlocks, game.WinDraw}, winner)
	assert.Contains(t, out.String(), "== Round 1 begins.")
	assert.NotContains(t, out.String(), "You are a Warlock.", "private entries are hidden")
}

func TestSimulateNeedsPlayers(t *testing.T) {
	catalog, err := game.DefaultCatalog()
	require.NoError(t, err)
	_, err = simulate(context.Background(), catalog, 1, 10, rand.New(rand.NewSource(1)), &bytes.Buffer{}, false)
	assert.Error(t, err)
}

func TestPlanActionTargetsMonster(t *testing.T) {
	catalog, err := game.DefaultCatalog()
	require.NoError(t, err)
	g := game.NewGame("plan")
	p := game.NewPlayer("p", "", game.RaceHuman, game.ClassPyromancer)
	p.HP, p.MaxHP = 100, 100
	p.Abilities = catalog.UnlockedFor(p.Class, 1)
	require.NoError(t, g.AddPlayer(p))

	ability, target := planAction(g, catalog, p, rand.New(rand.NewSource(1)))
	assert.Equal(t, "fireball", ability)
	assert.Equal(t, game.MonsterID, target)
}
