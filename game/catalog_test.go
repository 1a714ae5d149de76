package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	fireball, ok := c.Get("fireball")
	require.True(t, ok)
	assert.Equal(t, PhaseAttack, fireball.Phase)
	assert.Equal(t, Damage{Amount: 30}, fireball.Effect.Effect)
	assert.True(t, fireball.Allows(TargetMonster))
	assert.True(t, fireball.AvailableTo(ClassPyromancer))
	assert.False(t, fireball.AvailableTo(ClassPriest))

	// 每个种族都有且只有一个种族技能
	for race := range raceTraits {
		a, ok := c.RacialFor(race)
		require.True(t, ok, "race %s", race)
		assert.True(t, a.IsRacial())
		assert.Equal(t, race, a.Race)
	}
}

func TestUnlockedForLevels(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, []string{"slash"}, c.UnlockedFor(ClassWarrior, 1))
	assert.Equal(t, []string{"slash", "shieldWall"}, c.UnlockedFor(ClassWarrior, 2))
	assert.Equal(t, []string{"slash", "shieldWall", "bandage"}, c.UnlockedFor(ClassWarrior, 3))
	assert.Equal(t, []string{"holyBolt", "heal"}, c.UnlockedFor(ClassPriest, 1))
}

func TestLoadCatalogRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
abilities:
  - {id: a, category: attack, phase: attack, targets: [monster], classes: [warrior], effect: {kind: damage, amount: 1}}
  - {id: a, category: attack, phase: attack, targets: [monster], classes: [warrior], effect: {kind: damage, amount: 1}}
`,
		"missing effect": `
abilities:
  - {id: a, category: attack, phase: attack, targets: [monster], classes: [warrior]}
`,
		"unknown effect kind": `
abilities:
  - {id: a, category: attack, phase: attack, targets: [monster], classes: [warrior], effect: {kind: teleport}}
`,
		"no targets": `
abilities:
  - {id: a, category: attack, phase: attack, classes: [warrior], effect: {kind: damage, amount: 1}}
`,
		"racial without race": `
abilities:
  - {id: a, category: racial, phase: special, targets: [self], effect: {kind: detect}}
`,
		"unknown phase": `
abilities:
  - {id: a, category: attack, phase: lunch, targets: [monster], classes: [warrior], effect: {kind: damage, amount: 1}}
`,
		"unknown field": `
abilities:
  - {id: a, category: attack, phase: attack, targets: [monster], classes: [warrior], mana: 3, effect: {kind: damage, amount: 1}}
`,
		"empty": `abilities: []`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogDefaults(t *testing.T) {
	c, err := LoadCatalog(strings.NewReader(`
abilities:
  - {id: strike, category: attack, phase: attack, targets: [player, monster], classes: [warrior], effect: {kind: damage, amount: 20}}
`))
	require.NoError(t, err)
	a, ok := c.Get("strike")
	require.True(t, ok)
	assert.Equal(t, 1, a.UnlockLevel)
	assert.Equal(t, "strike", a.Name)
	assert.Len(t, c.All(), 1)
}

func TestEffectSpecJSONCarriesKind(t *testing.T) {
	b, err := EffectSpec{Effect: Poison{Damage: 10, TickDamage: 5, Duration: 2}}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"poison","damage":10,"tickDamage":5,"duration":2}`, string(b))
}
