package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"warlockarena/engine"
)

// Config 服务配置，从 WARLOCK_* 环境变量加载
type Config struct {
	Addr        string `env:"WARLOCK_ADDR" envDefault:":8080"`
	LogFile     string `env:"WARLOCK_LOG_FILE" envDefault:"app.log"`
	LogLevel    string `env:"WARLOCK_LOG_LEVEL" envDefault:"info"`
	CatalogPath string `env:"WARLOCK_CATALOG"` // 为空时使用内置技能目录
	DBPath      string `env:"WARLOCK_DB" envDefault:"warlock.db"`
	StaticDir   string `env:"WARLOCK_STATIC_DIR" envDefault:"web"`

	RoundTimeout      time.Duration `env:"WARLOCK_ROUND_TIMEOUT" envDefault:"60s"`
	InputBuffer       int           `env:"WARLOCK_INPUT_BUFFER" envDefault:"256"`
	CoordinationBonus float64       `env:"WARLOCK_COORDINATION_BONUS" envDefault:"0.1"`
	MonsterAgeDamage  int           `env:"WARLOCK_MONSTER_AGE_DAMAGE" envDefault:"2"`
}

// LoadConfig 解析环境变量
func LoadConfig() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if c.RoundTimeout <= 0 {
		return c, fmt.Errorf("WARLOCK_ROUND_TIMEOUT must be positive, got %s", c.RoundTimeout)
	}
	if c.InputBuffer <= 0 {
		c.InputBuffer = 256
	}
	return c, nil
}

// Engine 生成每个房间引擎的初始参数
func (c Config) Engine() engine.Config {
	e := engine.DefaultConfig()
	e.CoordinationBonus = c.CoordinationBonus
	e.MonsterAgeDamage = c.MonsterAgeDamage
	return e
}
