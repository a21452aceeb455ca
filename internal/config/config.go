package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Game     GameConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string `mapstructure:"PORT"`
	Host string `mapstructure:"HOST"`
	Env  string `mapstructure:"ENV"` // "development" or "production"
}

// GameConfig holds game-related configuration
type GameConfig struct {
	QuestionCount           int  `mapstructure:"QUESTION_COUNT"`
	QuestionDurationSeconds int  `mapstructure:"QUESTION_DURATION_SECONDS"`
	RevealSeconds           int  `mapstructure:"REVEAL_SECONDS"`
	BaseAward               int  `mapstructure:"BASE_AWARD"`
	TimeBonus               bool `mapstructure:"TIME_BONUS"`
	TimeUpToleranceSeconds  int  `mapstructure:"TIME_UP_TOLERANCE_SECONDS"`
	MaxTeams                int  `mapstructure:"MAX_TEAMS"`
	FinishedRoomTTLMinutes  int  `mapstructure:"FINISHED_ROOM_TTL_MINUTES"`
	StaleRoomTTLMinutes     int  `mapstructure:"STALE_ROOM_TTL_MINUTES"`
}

// DatabaseConfig holds question bank configuration. An empty driver
// means the built-in deck is used and scores are not persisted.
type DatabaseConfig struct {
	Driver        string `mapstructure:"DB_DRIVER"` // "postgres", "mysql" or "sqlite"
	URL           string `mapstructure:"DATABASE_URL"`
	QuestionsFile string `mapstructure:"QUESTIONS_FILE"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"` // "json" or "text"
}

var defaults = map[string]interface{}{
	"PORT": "8080",
	"HOST": "0.0.0.0",
	"ENV":  "development",

	"QUESTION_COUNT":            10,
	"QUESTION_DURATION_SECONDS": 30,
	"REVEAL_SECONDS":            7,
	"BASE_AWARD":                10,
	"TIME_BONUS":                false,
	"TIME_UP_TOLERANCE_SECONDS": 2,
	"MAX_TEAMS":                 16,
	"FINISHED_ROOM_TTL_MINUTES": 10,
	"STALE_ROOM_TTL_MINUTES":    120,

	"DB_DRIVER":      "",
	"DATABASE_URL":   "",
	"QUESTIONS_FILE": "",

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "text",
}

// Load loads configuration from environment variables with defaults.
// CONFIG_FILE optionally names a file (.env, .yaml, .json) read first;
// environment variables always win over it.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	sections := []interface{}{&cfg.Server, &cfg.Game, &cfg.Database, &cfg.Logging}
	for _, section := range sections {
		if err := v.Unmarshal(section); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "", "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Database.Driver != "" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for driver %s", c.Database.Driver)
	}

	if c.Game.QuestionDurationSeconds <= 0 {
		return fmt.Errorf("QUESTION_DURATION_SECONDS must be positive")
	}

	if c.Game.TimeUpToleranceSeconds < 0 || c.Game.RevealSeconds < 0 {
		return fmt.Errorf("REVEAL_SECONDS and TIME_UP_TOLERANCE_SECONDS must not be negative")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// GameSettings converts the game section into room settings
func (c *Config) GameSettings() domain.GameSettings {
	g := c.Game
	return domain.GameSettings{
		QuestionCount:    g.QuestionCount,
		QuestionDuration: time.Duration(g.QuestionDurationSeconds) * time.Second,
		RevealInterval:   time.Duration(g.RevealSeconds) * time.Second,
		BaseAward:        g.BaseAward,
		TimeBonus:        g.TimeBonus,
		TimeUpTolerance:  time.Duration(g.TimeUpToleranceSeconds) * time.Second,
		MaxTeams:         g.MaxTeams,
	}
}

// RegistryConfig returns the registry settings
func (c *Config) RegistryConfig() app.RegistryConfig {
	return app.RegistryConfig{
		Settings:        c.GameSettings(),
		FinishedRoomTTL: time.Duration(c.Game.FinishedRoomTTLMinutes) * time.Minute,
		StaleRoomTTL:    time.Duration(c.Game.StaleRoomTTLMinutes) * time.Minute,
	}
}
