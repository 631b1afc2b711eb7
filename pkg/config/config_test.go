package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UI.Indent != 2 {
		t.Errorf("expected default indent 2, got %d", cfg.UI.Indent)
	}
	if cfg.UI.Order != OrderTree {
		t.Errorf("expected default order %q, got %q", OrderTree, cfg.UI.Order)
	}
	if cfg.UI.PollInterval != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %s", cfg.UI.PollInterval)
	}
	if !cfg.UI.WatchEnabled() {
		t.Error("expected watching to be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.UI.Indicator != "> " {
		t.Errorf("expected default config, got indicator %q", cfg.UI.Indicator)
	}
}

func TestLoadFrom_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
database: ~/tasks/main.db
ui:
  indicator: "» "
  indent: 4
  poll_interval: 500ms
  order: id
  watch: false
log:
  level: debug
scopes:
  - name: inbox
    hide_complete: true
    match: inbox
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	home, _ := os.UserHomeDir()
	if cfg.Database != filepath.Join(home, "tasks", "main.db") {
		t.Errorf("expected ~ expanded database path, got %q", cfg.Database)
	}
	if cfg.UI.Indicator != "» " || cfg.UI.Indent != 4 {
		t.Errorf("ui not loaded: %+v", cfg.UI)
	}
	if cfg.UI.PollInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms poll interval, got %s", cfg.UI.PollInterval)
	}
	if cfg.UI.WatchEnabled() {
		t.Error("expected watch disabled")
	}
	// Unset keys keep their defaults
	if cfg.UI.DoneMark != "✓" {
		t.Errorf("expected default done mark, got %q", cfg.UI.DoneMark)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.Log.Level)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0].Name != "inbox" || !cfg.Scopes[0].HideComplete {
		t.Errorf("scopes not loaded: %+v", cfg.Scopes)
	}
}

func TestLoadFrom_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
database = "/var/lib/tend.db"

[ui]
indicator = "* "
indent = 3
order = "tree"

[log]
format = "json"

[[scopes]]
name = "errands"
match = "buy"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Database != "/var/lib/tend.db" {
		t.Errorf("database = %q", cfg.Database)
	}
	if cfg.UI.Indicator != "* " || cfg.UI.Indent != 3 {
		t.Errorf("ui not loaded: %+v", cfg.UI)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q", cfg.Log.Format)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0].Match != "buy" {
		t.Errorf("scopes not loaded: %+v", cfg.Scopes)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"malformed yaml", "config.yaml", "ui: [unclosed", "parsing config"},
		{"malformed toml", "config.toml", "ui = {", "parsing config"},
		{"bad order", "order.yaml", "ui:\n  order: random\n", "invalid ui.order"},
		{"negative indent", "indent.yaml", "ui:\n  indent: -1\n", "invalid ui.indent"},
		{"unnamed scope", "scope.yaml", "scopes:\n  - match: x\n", "scope without a name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFrom(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFrom() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDatabase, "/tmp/env.db")
	t.Setenv(EnvLogLevel, "warn")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Database != "/tmp/env.db" {
		t.Errorf("expected TEND_DB override, got %q", cfg.Database)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected TEND_LOG_LEVEL override, got %q", cfg.Log.Level)
	}
}

func TestLoad_UsesEnvConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("ui:\n  indent: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvDatabase, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UI.Indent != 6 {
		t.Errorf("expected indent from TEND_CONFIG file, got %d", cfg.UI.Indent)
	}
}

func TestConfigPath_PrefersTOML(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(EnvConfig, "")

	if got := ConfigPath(); filepath.Base(got) != "config.yaml" {
		t.Errorf("expected config.yaml when nothing exists, got %q", got)
	}

	dir := filepath.Join(xdg, "tend")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ConfigPath(); filepath.Base(got) != "config.toml" {
		t.Errorf("expected existing config.toml to win, got %q", got)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.UI.Indent = 5
	cfg.UI.PollInterval = 3 * time.Second
	cfg.Export.Title = "Weekend"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.UI.Indent != 5 || loaded.UI.PollInterval != 3*time.Second || loaded.Export.Title != "Weekend" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	if got := ConfigDir(); got != filepath.Join("/xdg/config", "tend") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := DataDir(); got != filepath.Join("/xdg/data", "tend") {
		t.Errorf("DataDir() = %q", got)
	}
	if got := StateDir(); got != filepath.Join("/xdg/state", "tend") {
		t.Errorf("StateDir() = %q", got)
	}
	if got := DefaultConfig().LogFile(); got != filepath.Join("/xdg/state", "tend", "tend.log") {
		t.Errorf("LogFile() = %q", got)
	}
}
