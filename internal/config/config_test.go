package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizroom/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.GetAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, domain.DefaultGameSettings(), cfg.GameSettings())

	registry := cfg.RegistryConfig()
	assert.Equal(t, 10*time.Minute, registry.FinishedRoomTTL)
	assert.Equal(t, 2*time.Hour, registry.StaleRoomTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("QUESTION_COUNT", "5")
	t.Setenv("QUESTION_DURATION_SECONDS", "15")
	t.Setenv("TIME_BONUS", "true")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:quiz.db")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.GetAddr())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:quiz.db", cfg.Database.URL)
	assert.Equal(t, "json", cfg.Logging.Format)

	settings := cfg.GameSettings()
	assert.Equal(t, 5, settings.QuestionCount)
	assert.Equal(t, 15*time.Second, settings.QuestionDuration)
	assert.True(t, settings.TimeBonus)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizroom.env")
	require.NoError(t, os.WriteFile(path, []byte("MAX_TEAMS=4\nREVEAL_SECONDS=3\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REVEAL_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Game.MaxTeams)
	assert.Equal(t, 5, cfg.Game.RevealSeconds, "environment overrides the file")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle", "DATABASE_URL": "x"}},
		{"driver without url", map[string]string{"DB_DRIVER": "postgres"}},
		{"zero duration", map[string]string{"QUESTION_DURATION_SECONDS": "0"}},
		{"missing file", map[string]string{"CONFIG_FILE": "/nonexistent/quizroom.env"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
