// Package config loads and validates launcherd configuration.
//
// Configuration is resolved in priority order:
//  1. Environment variables (LAUNCHERD_*) - highest priority
//  2. Explicit config file passed on the command line
//  3. User config (~/.config/launcherd/config.yaml)
//  4. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete launcherd configuration.
type Config struct {
	// Enabled controls the whole cache subsystem. When false every
	// operation becomes a no-op for the process lifetime.
	Enabled bool `yaml:"enabled"`

	// DatabasePath is the location of the launcher cache database.
	DatabasePath string `yaml:"database_path"`

	// ApplicationDirs are the root directories scanned for launcher files.
	ApplicationDirs []string `yaml:"application_dirs"`

	Query QueryConfig `yaml:"query"`
	Watch WatchConfig `yaml:"watch"`
	Log   LogConfig   `yaml:"log"`
}

// QueryConfig configures the connection to the package query service.
type QueryConfig struct {
	// SocketPath is the unix socket of the package backend daemon.
	SocketPath string `yaml:"socket_path"`

	// Timeout bounds one blocking query cycle. Zero means the default.
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is the window used to coalesce rapid file events.
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultQueryTimeout bounds one blocking query cycle when unconfigured.
// A hung backend must not hang a rescan forever.
const DefaultQueryTimeout = 5 * time.Minute

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Enabled:         true,
		DatabasePath:    defaultDatabasePath(),
		ApplicationDirs: []string{"/usr/share/applications"},
		Query: QueryConfig{
			SocketPath: defaultSocketPath(),
			Timeout:    DefaultQueryTimeout,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load resolves the configuration. If path is non-empty that file must
// exist; otherwise the user config is loaded when present. Environment
// overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	} else if userPath := UserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UserConfigPath returns the per-user config file location.
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "launcherd", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "launcherd", "config.yaml")
	}
	return filepath.Join(home, ".config", "launcherd", "config.yaml")
}

// loadYAML merges values from a YAML file over the current config.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies LAUNCHERD_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LAUNCHERD_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv("LAUNCHERD_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("LAUNCHERD_SOCKET_PATH"); v != "" {
		c.Query.SocketPath = v
	}
	if v := os.Getenv("LAUNCHERD_QUERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Query.Timeout = d
		}
	}
	if v := os.Getenv("LAUNCHERD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if len(c.ApplicationDirs) == 0 {
		return fmt.Errorf("application_dirs must not be empty")
	}
	for _, dir := range c.ApplicationDirs {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("application dir must be absolute: %s", dir)
		}
	}
	if c.Query.Timeout < 0 {
		return fmt.Errorf("query timeout must not be negative")
	}
	if c.Query.Timeout == 0 {
		c.Query.Timeout = DefaultQueryTimeout
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 200 * time.Millisecond
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".launcherd", "desktop-files.db")
	}
	return filepath.Join(home, ".launcherd", "desktop-files.db")
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "launcherd", "backend.sock")
	}
	return filepath.Join(os.TempDir(), "launcherd-backend.sock")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
