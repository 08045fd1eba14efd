package config

import "time"

// SetDefaults fills every unset field.
func SetDefaults(cfg *Config) {
	if cfg.Sim.MapRadius == 0 {
		cfg.Sim.MapRadius = 32
	}
	if len(cfg.Sim.Players) == 0 {
		cfg.Sim.Players = []string{"Settler"}
	}
	if cfg.Sim.TickInterval == 0 {
		cfg.Sim.TickInterval = 20 * time.Millisecond
	}
	if cfg.Sim.Speed == 0 {
		cfg.Sim.Speed = 1
	}

	if cfg.Save.DBPath == "" {
		cfg.Save.DBPath = "data/serfsim.db"
	}
	if cfg.Save.Every == 0 {
		cfg.Save.Every = 1000
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = "localhost:9464"
	}

	if cfg.API.Addr == "" {
		cfg.API.Addr = "localhost:8080"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Default returns a configuration built only from defaults.
func Default() *Config {
	cfg := &Config{}
	SetDefaults(cfg)
	return cfg
}
