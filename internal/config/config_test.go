// ABOUTME: Tests for healthdb configuration management.
// ABOUTME: Covers load, save, env overrides, defaults, validation, and path expansion.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGetDataDirDefault(t *testing.T) {
	cfg := &Config{}

	got := cfg.GetDataDir()
	if got == "" {
		t.Error("GetDataDir() returned empty string")
	}
}

func TestGetDataDirExplicit(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/health-test"}
	if got := cfg.GetDataDir(); got != "/tmp/health-test" {
		t.Errorf("GetDataDir() = %q, want %q", got, "/tmp/health-test")
	}
}

func TestGetDataDirExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	cfg := &Config{DataDir: "~/health-data"}
	got := cfg.GetDataDir()
	want := filepath.Join(home, "health-data")
	if got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestGetDBPath(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/health-test"}
	if got := cfg.GetDBPath(); got != "/tmp/health-test/health.db" {
		t.Errorf("GetDBPath() = %q", got)
	}

	cfg.DBPath = "/var/lib/other.db"
	if got := cfg.GetDBPath(); got != "/var/lib/other.db" {
		t.Errorf("GetDBPath() with override = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/health", filepath.Join(home, "data/health")},
		{"data/health", "data/health"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.DataDir != "" {
		t.Errorf("Expected empty DataDir, got %q", cfg.DataDir)
	}
	if cfg.BatchSize != 500 {
		t.Errorf("BatchSize = %d, want default 500", cfg.BatchSize)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want warn/text defaults", cfg.Log)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := &Config{
		DataDir:      "/tmp/health-data",
		BatchSize:    100,
		ExcludeTypes: []string{"*Energy*"},
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "healthdb", "config.json")); err != nil {
		t.Fatalf("Expected config file: %v", err)
	}

	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.DataDir != "/tmp/health-data" {
		t.Errorf("DataDir mismatch: got %q", loaded.DataDir)
	}
	if loaded.BatchSize != 100 {
		t.Errorf("BatchSize mismatch: got %d", loaded.BatchSize)
	}
	if len(loaded.ExcludeTypes) != 1 || loaded.ExcludeTypes[0] != "*Energy*" {
		t.Errorf("ExcludeTypes mismatch: got %v", loaded.ExcludeTypes)
	}
	if loaded.Log.Level != "warn" {
		t.Errorf("Log.Level default not applied: got %q", loaded.Log.Level)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `data_dir: /srv/health
batch_size: 250
exclude_sources:
  - "Old *"
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DataDir != "/srv/health" || cfg.BatchSize != 250 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.ExcludeSources) != 1 || cfg.ExcludeSources[0] != "Old *" {
		t.Errorf("ExcludeSources mismatch: got %v", cfg.ExcludeSources)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log mismatch: got %+v", cfg.Log)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"batch_size": 100, "db_path": "/a.db"}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HEALTHDB_BATCH_SIZE", "42")
	t.Setenv("HEALTHDB_EXCLUDE_TYPES", "A*,B*")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.BatchSize != 42 {
		t.Errorf("BatchSize = %d, want 42", cfg.BatchSize)
	}
	if cfg.DBPath != "/a.db" {
		t.Errorf("DBPath = %q, want /a.db", cfg.DBPath)
	}
	if len(cfg.ExcludeTypes) != 2 || cfg.ExcludeTypes[1] != "B*" {
		t.Errorf("ExcludeTypes = %v", cfg.ExcludeTypes)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "healthdb")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(""); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{BatchSize: 10, Log: LogConfig{Level: "info", Format: "json"}}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero batch", Config{BatchSize: 0, Log: LogConfig{Level: "info", Format: "text"}}},
		{"bad level", Config{BatchSize: 1, Log: LogConfig{Level: "loud", Format: "text"}}},
		{"bad format", Config{BatchSize: 1, Log: LogConfig{Level: "info", Format: "xml"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	got := GetConfigPath()
	want := filepath.Join(tmpDir, "healthdb", "config.json")
	if got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorage(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{DataDir: tmpDir}

	db, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "health.db")); os.IsNotExist(err) {
		t.Error("Expected health.db to be created")
	}
}

func TestConfigJSONOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(&Config{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"log":{}}` {
		t.Errorf("Expected only the log object, got %s", string(data))
	}
}
