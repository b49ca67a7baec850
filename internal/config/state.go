package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/ebbinghaus/internal/atomicfile"
)

// StateVersion is the current state file schema version.
const StateVersion = 1

var errNoStatePath = errors.New("state path is required")

// State is machine-local runtime state kept next to config.toml.
type State struct {
	Version     int    `toml:"version"`
	ActiveGraph string `toml:"active_graph,omitempty"`

	// CurrentPage is the page most recently opened with `ebb open`. The
	// markdown graph host reports it as the current route.
	CurrentPage string `toml:"current_page,omitempty"`
}

func (s *State) normalize() {
	if s.Version == 0 {
		s.Version = StateVersion
	}
	s.ActiveGraph = strings.TrimSpace(s.ActiveGraph)
	s.CurrentPage = strings.TrimSpace(s.CurrentPage)
}

// ResolveConfigPath returns explicit when set, else DefaultPath.
func ResolveConfigPath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return DefaultPath()
}

// ResolveStatePath picks the state file: the explicit flag, then
// cfg.StateFile (relative to the config directory), then state.toml beside
// the config file.
func ResolveStatePath(explicit, configPath string, cfg *Config) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	dir := filepath.Dir(ResolveConfigPath(configPath))

	fromConfig := ""
	if cfg != nil {
		fromConfig = strings.TrimSpace(cfg.StateFile)
	}
	switch {
	case fromConfig == "":
		return filepath.Join(dir, "state.toml")
	case filepath.IsAbs(fromConfig) || strings.HasPrefix(filepath.ToSlash(fromConfig), "/"):
		// Slash-rooted values are absolute on every OS.
		return filepath.Clean(filepath.FromSlash(fromConfig))
	default:
		return filepath.Join(dir, filepath.FromSlash(fromConfig))
	}
}

// LoadState reads state.toml. A missing file yields an empty state.
func LoadState(path string) (*State, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errNoStatePath
	}

	state := &State{}
	if _, err := toml.DecodeFile(path, state); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	state.normalize()
	return state, nil
}

// SaveState writes state.toml atomically, creating its directory.
func SaveState(path string, state *State) error {
	if strings.TrimSpace(path) == "" {
		return errNoStatePath
	}
	out := State{}
	if state != nil {
		out = *state
	}
	out.normalize()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write state %s: %w", path, err)
	}
	return nil
}
