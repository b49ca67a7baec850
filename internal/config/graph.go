package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/ebbinghaus/internal/atomicfile"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
)

// GraphConfigFile is the per-graph override file at the graph root.
const GraphConfigFile = ".ebb.yaml"

// GraphConfig represents graph-level configuration from .ebb.yaml.
type GraphConfig struct {
	// PagesDir holds regular pages (default: "pages/").
	PagesDir string `yaml:"pages_dir,omitempty"`

	// JournalsDir holds journal pages (default: "journals/").
	JournalsDir string `yaml:"journals_dir,omitempty"`

	// Settings overrides the global settings key by key.
	Settings *yaml.Node `yaml:"settings,omitempty"`
}

// DefaultGraphConfig returns the graph layout used when no .ebb.yaml exists.
func DefaultGraphConfig() *GraphConfig {
	return &GraphConfig{
		PagesDir:    "pages/",
		JournalsDir: "journals/",
	}
}

// GetPagesDir returns the normalized pages directory.
func (gc *GraphConfig) GetPagesDir() string {
	if gc == nil || gc.PagesDir == "" {
		return "pages/"
	}
	return paths.NormalizeDirRoot(gc.PagesDir)
}

// GetJournalsDir returns the normalized journals directory.
func (gc *GraphConfig) GetJournalsDir() string {
	if gc == nil || gc.JournalsDir == "" {
		return "journals/"
	}
	return paths.NormalizeDirRoot(gc.JournalsDir)
}

// ApplySettings overlays the graph's settings block onto base. Keys absent
// from .ebb.yaml keep base's values.
func (gc *GraphConfig) ApplySettings(base Settings) (Settings, error) {
	if gc == nil || gc.Settings == nil {
		return base, nil
	}
	out := base
	if err := gc.Settings.Decode(&out); err != nil {
		return base, fmt.Errorf("invalid settings in %s: %w", GraphConfigFile, err)
	}
	return out, nil
}

// LoadGraphConfig loads .ebb.yaml from graphPath.
// Returns the default graph config if the file doesn't exist.
func LoadGraphConfig(graphPath string) (*GraphConfig, error) {
	configPath := filepath.Join(graphPath, GraphConfigFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultGraphConfig(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
	}

	cfg := DefaultGraphConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return cfg, nil
}

// EffectiveSettings returns the global settings with graphPath's overrides applied.
func EffectiveSettings(global Settings, graphPath string) (Settings, error) {
	gc, err := LoadGraphConfig(graphPath)
	if err != nil {
		return global, err
	}
	return gc.ApplySettings(global)
}

// SaveGraphConfig writes .ebb.yaml atomically.
func SaveGraphConfig(graphPath string, cfg *GraphConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal graph config: %w", err)
	}
	return atomicfile.WriteFile(filepath.Join(graphPath, GraphConfigFile), data, 0o644)
}
