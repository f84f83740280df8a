// Package config loads the tracker configuration from an optional YAML
// file, a .env file and ATTENDANCE_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

const (
	DefaultConfigFile = "attendance.yaml"
	DefaultDataDir    = "data"
	DefaultPort       = 8080
	DefaultThreshold  = 80
	DefaultDebounceMS = 80
	DefaultAuthFile   = "auth.secret"
)

// Config is the full runtime configuration.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
	Port       int    `yaml:"port"`
	AuthFile   string `yaml:"auth_file"`
	Timezone   string `yaml:"timezone"`
	DebounceMS int    `yaml:"debounce_ms"`
	// Threshold is the percentage below which a subject is flagged.
	Threshold int    `yaml:"threshold"`
	LogLevel  string `yaml:"log_level"`
	Debug     bool   `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:    DefaultDataDir,
		Backend:    BackendFile,
		Port:       DefaultPort,
		AuthFile:   DefaultAuthFile,
		Timezone:   "Local",
		DebounceMS: DefaultDebounceMS,
		Threshold:  DefaultThreshold,
		LogLevel:   "info",
	}
}

// Load reads path (a missing file is fine unless explicit is set), then
// applies .env and environment overrides and validates the result.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"ATTENDANCE_DATA_DIR":    &c.DataDir,
		"ATTENDANCE_BACKEND":     &c.Backend,
		"ATTENDANCE_SQLITE_PATH": &c.SQLitePath,
		"ATTENDANCE_TIMEZONE":    &c.Timezone,
		"ATTENDANCE_LOG_LEVEL":   &c.LogLevel,
		"AUTH_FILE":              &c.AuthFile,
	}
	for key, dst := range strVars {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"ATTENDANCE_PORT":        &c.Port,
		"PORT":                   &c.Port,
		"ATTENDANCE_DEBOUNCE_MS": &c.DebounceMS,
		"ATTENDANCE_THRESHOLD":   &c.Threshold,
	}
	for key, dst := range intVars {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}
	// ATTENDANCE_PORT wins over PORT
	if v := os.Getenv("ATTENDANCE_PORT"); v != "" {
		c.Port, _ = strconv.Atoi(v)
	}

	if v := os.Getenv("ATTENDANCE_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ATTENDANCE_DEBUG: %w", err)
		}
		c.Debug = debug
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (expected %s or %s)", c.Backend, BackendFile, BackendSQLite)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("threshold must be within 0..100, got %d", c.Threshold)
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Debounce returns DebounceMS as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// DatabasePath is the SQLite file, defaulting into the data directory.
func (c *Config) DatabasePath() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "attendance.db")
}
