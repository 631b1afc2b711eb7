// Package config handles loading and saving tend configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/tend/config.yaml (or config.toml)
//   - Data:    ~/.local/share/tend/ (default task database)
//   - State:   ~/.local/state/tend/ (log file, tree view state)
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/tend/pkg/scope"
)

const appName = "tend"

// Environment overrides, applied after the config file is read.
const (
	EnvConfig   = "TEND_CONFIG"
	EnvDatabase = "TEND_DB"
	EnvLogLevel = "TEND_LOG_LEVEL"
)

// Task orderings understood by the store.
const (
	OrderTree = "tree"
	OrderID   = "id"
)

// UIConfig holds tree view appearance and behaviour.
type UIConfig struct {
	Indicator    string        `yaml:"indicator,omitempty" toml:"indicator,omitempty"`
	Indent       int           `yaml:"indent,omitempty" toml:"indent,omitempty"`
	HighlightFg  string        `yaml:"highlight_fg,omitempty" toml:"highlight_fg,omitempty"`
	HighlightBg  string        `yaml:"highlight_bg,omitempty" toml:"highlight_bg,omitempty"`
	BaseFg       string        `yaml:"base_fg,omitempty" toml:"base_fg,omitempty"`
	DoneMark     string        `yaml:"done_mark,omitempty" toml:"done_mark,omitempty"`
	TodoMark     string        `yaml:"todo_mark,omitempty" toml:"todo_mark,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty" toml:"poll_interval,omitempty"`
	Order        string        `yaml:"order,omitempty" toml:"order,omitempty"` // tree, id
	Scope        string        `yaml:"scope,omitempty" toml:"scope,omitempty"`
	Watch        *bool         `yaml:"watch,omitempty" toml:"watch,omitempty"`
}

// WatchEnabled reports whether the database file should be watched for
// changes. Defaults to true.
func (u UIConfig) WatchEnabled() bool {
	return u.Watch == nil || *u.Watch
}

// LogConfig controls the charmbracelet/log logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format,omitempty"` // text, json, logfmt
	File   string `yaml:"file,omitempty" toml:"file,omitempty"`     // TUI log file, defaults to StateDir/tend.log
}

// ExportConfig holds defaults for `tend export`.
type ExportConfig struct {
	Title        string `yaml:"title,omitempty" toml:"title,omitempty"`
	GlamourStyle string `yaml:"glamour_style,omitempty" toml:"glamour_style,omitempty"` // auto, dark, light, notty
}

// Config is the top-level configuration for tend.
type Config struct {
	Database string        `yaml:"database,omitempty" toml:"database,omitempty"`
	UI       UIConfig      `yaml:"ui,omitempty" toml:"ui,omitempty"`
	Log      LogConfig     `yaml:"log,omitempty" toml:"log,omitempty"`
	Export   ExportConfig  `yaml:"export,omitempty" toml:"export,omitempty"`
	Scopes   []scope.Scope `yaml:"scopes,omitempty" toml:"scopes,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			Indicator:    "> ",
			Indent:       2,
			HighlightFg:  "#F8F8F2",
			HighlightBg:  "#44475A",
			DoneMark:     "✓",
			TodoMark:     "·",
			PollInterval: 2 * time.Second,
			Order:        OrderTree,
			Scope:        "all",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Export: ExportConfig{
			Title:        "Tasks",
			GlamourStyle: "auto",
		},
	}
}

// ConfigDir returns the XDG config directory for tend.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory for tend.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// StateDir returns the XDG state directory for tend.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the config file path. TEND_CONFIG wins; otherwise an
// existing config.toml is preferred over config.yaml.
func ConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return expandHome(p)
	}
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	tomlPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the default location and applies
// environment overrides. Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, nil
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFrom reads config from a specific path. The format is chosen by
// extension: .toml is TOML, anything else YAML.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Database = expandHome(cfg.Database)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays TEND_DB and TEND_LOG_LEVEL onto the config.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDatabase)); v != "" {
		c.Database = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects settings the rest of the program cannot honour.
func (c Config) Validate() error {
	switch c.UI.Order {
	case "", OrderTree, OrderID:
	default:
		return fmt.Errorf("invalid ui.order %q (want %s or %s)", c.UI.Order, OrderTree, OrderID)
	}
	if c.UI.Indent < 0 {
		return fmt.Errorf("invalid ui.indent %d: must not be negative", c.UI.Indent)
	}
	if c.UI.PollInterval < 0 {
		return fmt.Errorf("invalid ui.poll_interval %s: must not be negative", c.UI.PollInterval)
	}
	for _, s := range c.Scopes {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("scope without a name")
		}
	}
	return nil
}

// Save writes the config to the default location.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path, in TOML when the path ends
// in .toml and YAML otherwise.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// LogFile returns the TUI log destination.
func (c Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "tend.log")
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
