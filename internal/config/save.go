package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/ebbinghaus/internal/atomicfile"
)

type persistedConfig struct {
	DefaultGraph *string              `toml:"default_graph,omitempty"`
	StateFile    *string              `toml:"state_file,omitempty"`
	LogLevel     *string              `toml:"log_level,omitempty"`
	Graphs       map[string]string    `toml:"graphs,omitempty"`
	Settings     *Settings            `toml:"settings,omitempty"`
	UI           *persistedUISettings `toml:"ui,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the global config to a specific path atomically.
// Settings are only written when they differ from the defaults.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = New()
	}

	out := persistedConfig{
		DefaultGraph: nonEmptyPtr(cfg.DefaultGraph),
		StateFile:    nonEmptyPtr(cfg.StateFile),
		LogLevel:     nonEmptyPtr(cfg.LogLevel),
	}
	if len(cfg.Graphs) > 0 {
		out.Graphs = cfg.Graphs
	}
	if cfg.Settings != DefaultSettings() {
		settings := cfg.Settings
		out.Settings = &settings
	}
	accent, codeTheme := nonEmptyPtr(cfg.UI.Accent), nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{Accent: accent, CodeTheme: codeTheme}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
