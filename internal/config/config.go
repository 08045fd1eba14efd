// Package config loads serfsim settings from defaults, an optional YAML
// file, a .env file and SERF_ environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Sim     SimConfig     `mapstructure:"sim"`
	Save    SaveConfig    `mapstructure:"save"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SimConfig controls the seeded settlement and the tick loop.
type SimConfig struct {
	Seed         int64         `mapstructure:"seed"`
	MapRadius    int           `mapstructure:"map_radius" validate:"min=8,max=256"`
	Players      []string      `mapstructure:"players" validate:"min=1,max=4,dive,required"`
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"min=0"`
	Speed        int           `mapstructure:"speed" validate:"min=0,max=64"`
	MaxTicks     uint32        `mapstructure:"max_ticks"`
}

// SaveConfig controls where and how often the game is saved.
type SaveConfig struct {
	DBPath      string `mapstructure:"db_path" validate:"required"`
	SnapshotDir string `mapstructure:"snapshot_dir"`
	Every       uint32 `mapstructure:"every"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// APIConfig controls the HTTP observation API.
type APIConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	AdminKey string `mapstructure:"admin_key"`
}

// LoggingConfig holds the log level.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// Load reads configuration. An empty path searches ./serfsim.yaml and
// ./configs/serfsim.yaml; a missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("serfsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("SERF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	SetDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// bindKeys makes every key visible to AutomaticEnv during Unmarshal, which
// only consults the environment for keys viper already knows about.
func bindKeys(v *viper.Viper) {
	for _, key := range []string{
		"sim.seed", "sim.map_radius", "sim.players", "sim.tick_interval",
		"sim.speed", "sim.max_ticks",
		"save.db_path", "save.snapshot_dir", "save.every",
		"metrics.enabled", "metrics.addr",
		"api.enabled", "api.addr", "api.admin_key",
		"logging.level",
	} {
		_ = v.BindEnv(key)
	}
}

// SlogLevel maps the configured level onto slog.
func (c LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
