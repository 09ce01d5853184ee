// Package config loads process configuration from the environment and
// game tuning (scoring tiers, room defaults) from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/actout/actout/internal/scoring"
)

// Config is the process-level configuration, parsed from the environment.
type Config struct {
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL string        `env:"DATABASE_URL"`
	NATSURL     string        `env:"NATS_URL"` // empty disables event publishing
	GameConfig  string        `env:"GAME_CONFIG"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool          `env:"LOG_PRETTY" envDefault:"false"`
	LobbyTTL    time.Duration `env:"LOBBY_TTL" envDefault:"1h"`
	FinishedTTL time.Duration `env:"FINISHED_TTL" envDefault:"30m"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

// GameConfig carries the deployment-tunable game parameters.
type GameConfig struct {
	ScoringTiers   []scoring.Tier `yaml:"scoring_tiers"`
	TotalRounds    int            `yaml:"total_rounds"`
	MaxTimePerTurn int            `yaml:"max_time_per_turn"` // seconds
}

// DefaultGameConfig matches the reference deployment.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		ScoringTiers:   scoring.DefaultTiers,
		TotalRounds:    10,
		MaxTimePerTurn: 240,
	}
}

// LoadGameConfig reads a YAML game config from path. An empty path yields
// the defaults.
func LoadGameConfig(path string) (GameConfig, error) {
	cfg := DefaultGameConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read game config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse game config: %w", err)
	}
	if cfg.TotalRounds <= 0 {
		return cfg, fmt.Errorf("game config: total_rounds must be positive")
	}
	if cfg.MaxTimePerTurn <= 0 {
		return cfg, fmt.Errorf("game config: max_time_per_turn must be positive")
	}
	if _, err := scoring.NewTable(cfg.ScoringTiers); err != nil {
		return cfg, err
	}
	return cfg, nil
}
