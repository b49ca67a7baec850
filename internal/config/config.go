// Package config handles global ebb configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Config represents the global ebb configuration.
type Config struct {
	// DefaultGraph is the name of the default graph (from Graphs map).
	DefaultGraph string `toml:"default_graph"`

	// Graphs is a map of graph names to root directories.
	Graphs map[string]string `toml:"graphs"`

	// StateFile overrides the state.toml location (relative to the config dir).
	StateFile string `toml:"state_file"`

	// LogLevel is the default slog level: debug, info, warn or error.
	LogLevel string `toml:"log_level"`

	// Settings are the automation settings shared by every graph.
	// A graph's .ebb.yaml may override them.
	Settings Settings `toml:"settings"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme is the chroma theme used for code blocks in `ebb show`.
	CodeTheme string `toml:"code_theme"`
}

// New returns an empty Config carrying default settings.
func New() *Config {
	return &Config{Settings: DefaultSettings()}
}

// GetGraphPath returns the path for a named graph.
// If name is empty, returns the default graph path.
func (c *Config) GetGraphPath(name string) (string, error) {
	if name == "" {
		name = c.DefaultGraph
	}
	if name == "" {
		return "", fmt.Errorf("no default graph configured")
	}

	if c.Graphs != nil {
		if path, ok := c.Graphs[name]; ok {
			return path, nil
		}
	}

	return "", fmt.Errorf("graph '%s' not found in config", name)
}

// GetDefaultGraphPath returns the default graph path.
func (c *Config) GetDefaultGraphPath() (string, error) {
	return c.GetGraphPath("")
}

// GraphNames returns the configured graph names, sorted.
func (c *Config) GraphNames() []string {
	names := make([]string, 0, len(c.Graphs))
	for name := range c.Graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return New(), nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
// Keys missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	config := New()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/ebb/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "ebb", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "ebb", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// CreateDefault creates a default config file at path if it doesn't exist.
func CreateDefault(configPath string) (string, error) {
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil // Already exists
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# ebb configuration

# Default graph name (must exist in [graphs] below)
# default_graph = "notes"

# Named graphs (directories holding pages/ and journals/)
# [graphs]
# notes = "/path/to/your/graph"

# log_level = "info"

# Automation settings. A graph may override any of these in <graph>/.ebb.yaml.
# [settings]
# template_pages = "Templates"
# case_insensitive_page_match = true
# marker_offsets = "@ebbinghaus-created"
# marker_range = "@ebbinghaus-range"
# property_key = "created"
# offset_days = "1,2,4,7,15,30,90,180"
# exclude_today = true
# range_start = ""            # YYYYMMDD
# range_end = ""              # YYYYMMDD
# auto_update_templates = true
# update_when_open_template_page = true
# auto_update_range_on_open_page = true
# auto_update_range_on_edit = true
# max_range_days = 400
# edit_debounce_ms = 600

# [ui]
# accent = "39"
# code_theme = "monokai"
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
