// Package config loads Daybook configuration with precedence:
// defaults, then YAML file, then DAYBOOK_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Planner  PlannerConfig  `yaml:"planner"`
	Sync     SyncConfig     `yaml:"sync"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig contains HTTP server settings for the desktop-UI adapter.
type ServerConfig struct {
	Port                int `yaml:"port"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PlannerConfig bounds the working day and the scheduling grid.
type PlannerConfig struct {
	DayStartHour        int `yaml:"day_start_hour"`
	DayEndHour          int `yaml:"day_end_hour"`
	SnapMinutes         int `yaml:"snap_minutes"`
	DefaultTaskMinutes  int `yaml:"default_task_minutes"`
	WorkingHoursPerDay  int `yaml:"working_hours_per_day"`
	OverCommitThreshold int `yaml:"overcommit_threshold_pct"`
}

// SyncConfig contains the best-effort cross-process change signal settings.
type SyncConfig struct {
	ChangeLogPath string `yaml:"change_log_path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("DAYBOOK_CONFIG_PATH", "config/daybook.yaml")

	// Missing file is not an error; defaults apply.
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration, useful as a baseline in
// tests and tooling.
func Default() *Config {
	return newDefaults()
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                7420,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
		},
		Database: DatabaseConfig{
			Path: "data/daybook.db",
		},
		Planner: PlannerConfig{
			DayStartHour:        8,
			DayEndHour:          18,
			SnapMinutes:         15,
			DefaultTaskMinutes:  30,
			WorkingHoursPerDay:  8,
			OverCommitThreshold: 80,
		},
		Sync: SyncConfig{
			ChangeLogPath: "data/changes.jsonl",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DAYBOOK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DAYBOOK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DAYBOOK_CHANGE_LOG_PATH"); v != "" {
		cfg.Sync.ChangeLogPath = v
	}
	if v := os.Getenv("DAYBOOK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DAYBOOK_DAY_START_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			cfg.Planner.DayStartHour = h
		}
	}
	if v := os.Getenv("DAYBOOK_DAY_END_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			cfg.Planner.DayEndHour = h
		}
	}
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds < 1 || c.Server.WriteTimeoutSeconds < 1 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	p := c.Planner
	if p.DayStartHour < 0 || p.DayStartHour > 23 {
		return fmt.Errorf("invalid day start hour: %d", p.DayStartHour)
	}
	if p.DayEndHour < 1 || p.DayEndHour > 24 {
		return fmt.Errorf("invalid day end hour: %d", p.DayEndHour)
	}
	if p.DayEndHour <= p.DayStartHour {
		return fmt.Errorf("day end hour %d must be after start hour %d", p.DayEndHour, p.DayStartHour)
	}
	if p.SnapMinutes < 1 || p.SnapMinutes > 60 || 60%p.SnapMinutes != 0 {
		return fmt.Errorf("snap minutes must divide an hour evenly, got %d", p.SnapMinutes)
	}
	if p.DefaultTaskMinutes < 1 {
		return fmt.Errorf("default task minutes must be positive, got %d", p.DefaultTaskMinutes)
	}
	if p.WorkingHoursPerDay < 1 || p.WorkingHoursPerDay > 24 {
		return fmt.Errorf("invalid working hours per day: %d", p.WorkingHoursPerDay)
	}
	return nil
}

// getEnv returns the env var value or a default when unset.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
