// Package config provides configuration structures for the SQLite explorer server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDatabaseName is the file used when no database is configured. It
// lives in the user's home directory.
const DefaultDatabaseName = "mcpDefaultSqlite.db"

// Config represents the server configuration.
type Config struct {
	// Server settings
	Database          string        `yaml:"database" json:"database" mapstructure:"database"`
	LogLevel          string        `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" json:"connection_timeout" mapstructure:"connection_timeout"`
	BusyTimeout       time.Duration `yaml:"busy_timeout" json:"busy_timeout" mapstructure:"busy_timeout"`
	QueryTimeout      time.Duration `yaml:"query_timeout" json:"query_timeout" mapstructure:"query_timeout"`
	MaxRows           int64         `yaml:"max_rows" json:"max_rows" mapstructure:"max_rows"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Address string `yaml:"address" json:"address" mapstructure:"address"`
	Path    string `yaml:"path" json:"path" mapstructure:"path"`
}

// Validate validates the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.Database == "" {
		path, err := DefaultDatabasePath()
		if err != nil {
			return fmt.Errorf("database is required: %w", err)
		}
		c.Database = path
	}

	path, err := expandHome(c.Database)
	if err != nil {
		return fmt.Errorf("invalid database path %q: %w", c.Database, err)
	}
	c.Database = path

	switch strings.ToLower(c.LogLevel) {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		return fmt.Errorf("unsupported log level: %s", c.LogLevel)
	}

	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = 10 * time.Second
	}

	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must not be negative")
	}

	if c.QueryTimeout < 0 {
		return fmt.Errorf("query timeout must not be negative")
	}

	if c.MaxRows < 0 {
		return fmt.Errorf("max rows must not be negative")
	}

	// Set defaults for metrics
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics address is required when metrics are enabled")
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	return nil
}

// DefaultDatabasePath returns the database used when none is configured.
func DefaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDatabaseName), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database:          "",
		LogLevel:          "info",
		ConnectionTimeout: 10 * time.Second,
		BusyTimeout:       5 * time.Second,
		QueryTimeout:      30 * time.Second,
		MaxRows:           10000,
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
			Path:    "/metrics",
		},
	}
}
