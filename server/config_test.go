package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, time.Minute, cfg.RoundTimeout)
	assert.Equal(t, 0.1, cfg.Engine().CoordinationBonus)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("WARLOCK_ADDR", ":9000")
	t.Setenv("WARLOCK_ROUND_TIMEOUT", "15s")
	t.Setenv("WARLOCK_COORDINATION_BONUS", "0.2")
	t.Setenv("WARLOCK_MONSTER_AGE_DAMAGE", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 15*time.Second, cfg.RoundTimeout)
	eng := cfg.Engine()
	assert.Equal(t, 0.2, eng.CoordinationBonus)
	assert.Equal(t, 5, eng.MonsterAgeDamage)
	assert.Equal(t, 100, eng.PlayerBaseHP)
}

func TestLoadConfigRejectsBadTimeout(t *testing.T) {
	t.Setenv("WARLOCK_ROUND_TIMEOUT", "0s")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("WARLOCK_ROUND_TIMEOUT", "soon")
	_, err = LoadConfig()
	assert.Error(t, err)
}
