package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warlockarena/game"
)

func testPlayer(id game.PlayerID, hp int) *game.Player {
	p := game.NewPlayer(id, string(id), game.RaceHuman, game.ClassWarrior)
	p.HP, p.MaxHP = hp, hp
	return p
}

func testCalculator() *Calculator {
	cfg := DefaultConfig()
	return NewCalculator(&cfg)
}

func TestApplyDamage(t *testing.T) {
	calc := testCalculator()
	attacker := testPlayer("a", 100)

	cases := []struct {
		name   string
		armor  int
		effect *game.StatusEffect
		bonus  float64
		want   int
	}{
		{name: "plain", want: 30},
		{name: "armor", armor: 2, want: 24},
		{name: "armor capped", armor: 50, want: 3},
		{name: "shielded", effect: &game.StatusEffect{Name: game.StatusShielded, Turns: 1, Amount: 5}, want: 15},
		{name: "protected", effect: &game.StatusEffect{Name: game.StatusProtected, Turns: 1, Percent: 0.5}, want: 15},
		{name: "coordination bonus", bonus: 1.2, want: 36},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := testPlayer("t", 100)
			target.Armor = tc.armor
			if tc.effect != nil {
				target.Effects[tc.effect.Name] = tc.effect
			}
			res := calc.ApplyDamage(target, 30, DamageContext{Attacker: attacker, Source: "a", Bonus: tc.bonus})
			require.True(t, res.Success)
			assert.Equal(t, tc.want, res.FinalDamage)
			assert.Equal(t, 100-tc.want, target.HP)
		})
	}
}

func TestApplyDamageAttackerModifiers(t *testing.T) {
	calc := testCalculator()
	attacker := testPlayer("a", 100)
	attacker.DamageMod = 1.5
	attacker.Effects[game.StatusEnraged] = &game.StatusEffect{Name: game.StatusEnraged, Turns: 1, Multiplier: 2}

	target := testPlayer("t", 200)
	res := calc.ApplyDamage(target, 20, DamageContext{Attacker: attacker})
	assert.Equal(t, 60, res.FinalDamage)
}

func TestInvisibleTargetEvades(t *testing.T) {
	calc := testCalculator()
	target := testPlayer("t", 100)
	target.Effects[game.StatusInvisible] = &game.StatusEffect{Name: game.StatusInvisible, Turns: 1}

	res := calc.ApplyDamage(target, 30, DamageContext{Source: "a"})
	assert.True(t, res.Missed)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, game.ErrEvaded)
	assert.Equal(t, 100, target.HP)

	// 持续伤害不受隐身影响
	res = calc.ApplyDamage(target, 8, DamageContext{Source: "a", Periodic: true})
	assert.True(t, res.Success)
	assert.Equal(t, 92, target.HP)
}

func TestLethalDamageKillsOnce(t *testing.T) {
	calc := testCalculator()
	target := testPlayer("t", 20)

	res := calc.ApplyDamage(target, 30, DamageContext{Source: "a"})
	assert.True(t, res.Killed)
	assert.Equal(t, 0, target.HP)
	assert.False(t, target.Alive)

	res = calc.ApplyDamage(target, 30, DamageContext{Source: "a"})
	assert.False(t, res.Success)
	assert.False(t, res.Killed)
	assert.ErrorIs(t, res.Err, game.ErrTargetDead)
	assert.Equal(t, 0, target.HP)
}

func TestUndyingRevivesOnce(t *testing.T) {
	calc := testCalculator()
	target := testPlayer("t", 10)
	target.Effects[game.StatusUndying] = &game.StatusEffect{Name: game.StatusUndying, Turns: 3, Amount: 1}

	res := calc.ApplyDamage(target, 30, DamageContext{Source: "a"})
	assert.True(t, res.Revived)
	assert.False(t, res.Killed)
	assert.Equal(t, 1, target.HP)
	assert.True(t, target.Alive)
	assert.NotContains(t, target.Effects, game.StatusUndying)

	res = calc.ApplyDamage(target, 30, DamageContext{Source: "a"})
	assert.True(t, res.Killed)
}

func TestApplyHealing(t *testing.T) {
	calc := testCalculator()
	target := testPlayer("t", 100)
	target.HP = 90

	res := calc.ApplyHealing(target, 30, HealContext{})
	require.True(t, res.Success)
	assert.Equal(t, 10, res.FinalHealing)
	assert.True(t, res.WasOverhealing)
	assert.Equal(t, 20, res.Overheal)
	assert.Equal(t, 100, target.HP)

	target.Alive = false
	res = calc.ApplyHealing(target, 30, HealContext{})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, game.ErrTargetDead)
}

func TestHealingWarlockRedirects(t *testing.T) {
	calc := testCalculator()
	healer := testPlayer("h", 100)
	healer.HP = 50
	warlock := testPlayer("w", 100)
	warlock.HP = 50
	warlock.IsWarlock = true

	res := calc.ApplyHealing(warlock, 30, HealContext{Healer: healer})
	assert.True(t, res.Redirected)
	assert.Equal(t, healer, res.Recipient)
	assert.Equal(t, 80, healer.HP)
	assert.Equal(t, 50, warlock.HP)

	// 术士之间治疗正常生效
	other := testPlayer("o", 100)
	other.IsWarlock = true
	res = calc.ApplyHealing(warlock, 30, HealContext{Healer: other})
	assert.False(t, res.Redirected)
	assert.Equal(t, 80, warlock.HP)
}
