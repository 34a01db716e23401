// ABOUTME: healthdb configuration loaded from a JSON or YAML file plus environment.
// ABOUTME: Resolves the data directory and database path and opens the store.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/harperreed/healthdb/internal/storage"
)

// Config stores healthdb configuration.
// Priority: ENV > file > defaults (via env-default tags).
type Config struct {
	// DataDir is the root directory for data storage. Supports ~ expansion.
	// Defaults to $XDG_DATA_HOME/healthdb.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" env:"HEALTHDB_DATA_DIR"`

	// DBPath overrides the database file location. Defaults to DataDir/health.db.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" env:"HEALTHDB_DB_PATH"`

	// BatchSize is the number of items committed per ingestion transaction.
	BatchSize int `json:"batch_size,omitempty" yaml:"batch_size,omitempty" env:"HEALTHDB_BATCH_SIZE" env-default:"500"`

	// ExcludeTypes and ExcludeSources are glob patterns skipped during ingestion.
	ExcludeTypes   []string `json:"exclude_types,omitempty" yaml:"exclude_types,omitempty" env:"HEALTHDB_EXCLUDE_TYPES" env-separator:","`
	ExcludeSources []string `json:"exclude_sources,omitempty" yaml:"exclude_sources,omitempty" env:"HEALTHDB_EXCLUDE_SOURCES" env-separator:","`

	// RulesPath points at a validation rule set file. Empty uses the built-in rules.
	RulesPath string `json:"rules_path,omitempty" yaml:"rules_path,omitempty" env:"HEALTHDB_RULES_PATH"`

	Log LogConfig `json:"log" yaml:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty" env:"HEALTHDB_LOG_LEVEL" env-default:"warn"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" env:"HEALTHDB_LOG_FORMAT" env-default:"text"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetDBPath returns the database file path.
func (c *Config) GetDBPath() string {
	if c.DBPath != "" {
		return ExpandPath(c.DBPath)
	}
	return filepath.Join(c.GetDataDir(), "health.db")
}

// GetRulesPath returns the rule set path with ~ expanded, or "".
func (c *Config) GetRulesPath() string {
	return ExpandPath(c.RulesPath)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// OpenStorage opens the SQLite store at the configured path.
func (c *Config) OpenStorage() (*storage.DB, error) {
	return storage.Open(c.GetDBPath())
}

// GetConfigPath returns the default config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "healthdb", "config.json")
}

// Load reads configuration from path, or from GetConfigPath when path is
// empty. An explicit path must exist; a missing default file means
// environment and defaults only.
func Load(path string) (*Config, error) {
	var cfg Config

	explicitPath := path != ""
	if !explicitPath {
		path = GetConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Save writes config to the default path as JSON.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes config to path as JSON.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
