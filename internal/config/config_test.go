package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 32, cfg.Sim.MapRadius)
	assert.Equal(t, 20*time.Millisecond, cfg.Sim.TickInterval)
	assert.Equal(t, uint32(1000), cfg.Save.Every)
	assert.Equal(t, slog.LevelInfo, cfg.Logging.SlogLevel())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "serfsim.yaml")
	body := []byte(`
sim:
  map_radius: 48
  players: [Ada, Brom]
  tick_interval: 5ms
save:
  db_path: /tmp/serf.db
  every: 50
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	t.Setenv("SERF_SAVE_EVERY", "75")
	t.Setenv("SERF_METRICS_ENABLED", "true")
	t.Setenv("SERF_API_ADMIN_KEY", "hunter2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.Sim.MapRadius)
	assert.Equal(t, []string{"Ada", "Brom"}, cfg.Sim.Players)
	assert.Equal(t, 5*time.Millisecond, cfg.Sim.TickInterval)
	assert.Equal(t, "/tmp/serf.db", cfg.Save.DBPath)
	assert.Equal(t, uint32(75), cfg.Save.Every)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "localhost:9464", cfg.Metrics.Addr)
	assert.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
	assert.Equal(t, "hunter2", cfg.API.AdminKey)
	assert.Equal(t, "localhost:8080", cfg.API.Addr)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"radius too small": func(c *Config) { c.Sim.MapRadius = 2 },
		"too many players": func(c *Config) { c.Sim.Players = []string{"a", "b", "c", "d", "e"} },
		"empty player":     func(c *Config) { c.Sim.Players = []string{""} },
		"bad level":        func(c *Config) { c.Logging.Level = "loud" },
		"api without addr": func(c *Config) { c.API.Enabled = true; c.API.Addr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
