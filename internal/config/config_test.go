package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.LobbyTTL)
	assert.Equal(t, 30*time.Minute, cfg.FinishedTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOBBY_TTL", "15m")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.LobbyTTL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoadGameConfigDefaults(t *testing.T) {
	cfg, err := LoadGameConfig("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.TotalRounds)
	assert.Equal(t, 240, cfg.MaxTimePerTurn)
	assert.NotEmpty(t, cfg.ScoringTiers)
}

func TestLoadGameConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	data := `
total_rounds: 6
max_time_per_turn: 120
scoring_tiers:
  - max_seconds: 30
    points: 50
  - max_seconds: 120
    points: 10
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadGameConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.TotalRounds)
	assert.Equal(t, 120, cfg.MaxTimePerTurn)
	require.Len(t, cfg.ScoringTiers, 2)
	assert.Equal(t, 50, cfg.ScoringTiers[0].Points)
}

func TestLoadGameConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero rounds", "total_rounds: 0"},
		{"negative turn time", "max_time_per_turn: -1"},
		{"unordered tiers", "scoring_tiers:\n  - max_seconds: 120\n    points: 10\n  - max_seconds: 30\n    points: 50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "game.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))
			_, err := LoadGameConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadGameConfigMissingFile(t *testing.T) {
	_, err := LoadGameConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
