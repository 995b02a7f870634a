package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := &Config{Database: "/data/app.db"}
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "/data/app.db", cfg.Database)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 10*time.Second, cfg.ConnectionTimeout)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
	})

	t.Run("empty database falls back to the home directory", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		cfg := &Config{}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, filepath.Join(home, DefaultDatabaseName), cfg.Database)
	})

	t.Run("expands tilde", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		cfg := &Config{Database: "~/dbs/app.db"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, filepath.Join(home, "dbs", "app.db"), cfg.Database)
	})

	t.Run("normalizes log level", func(t *testing.T) {
		cfg := &Config{Database: "/data/app.db", LogLevel: "DEBUG"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "unknown log level", cfg: Config{Database: "a.db", LogLevel: "trace"}},
		{name: "negative busy timeout", cfg: Config{Database: "a.db", BusyTimeout: -time.Second}},
		{name: "negative query timeout", cfg: Config{Database: "a.db", QueryTimeout: -time.Second}},
		{name: "negative max rows", cfg: Config{Database: "a.db", MaxRows: -1}},
		{name: "metrics without address", cfg: Config{Database: "a.db", Metrics: MetricsConfig{Enabled: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, int64(10000), cfg.MaxRows)
	assert.False(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())
}
