// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/ebbinghaus/internal/config"
	"github.com/aidanlsb/ebbinghaus/internal/logging"
	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var (
	// Global flags
	graphName     string // Named graph from config
	graphPathFlag string // Explicit path (rare)
	configPath    string
	statePathFlag string
	logLevelFlag  string
	dbPathFlag    string

	// Resolved values
	resolvedGraphPath  string
	resolvedConfigPath string
	resolvedStatePath  string
	cfg                *config.Config
	logger             *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ebb",
	Short: "ebb - spaced-repetition query refresher for outliner graphs",
	Long: `ebb keeps the date inputs of outliner query blocks current.

Blocks tagged with the offsets marker get :inputs dates at fixed offsets
before today (1, 2, 4, 7 ... days ago). Blocks tagged with the range marker
get every date of a RANGE:<start>-<end> sentinel.

Pages live as markdown outlines under pages/ and journals/ of a graph
directory, or in a sqlite block store selected with --db.`,
	SilenceUsage: true,
}

// persistentPreRunE loads config, logging and the graph path before every command.
// It is attached in init because it refers back to rootCmd via commandGroup.
func persistentPreRunE(cmd *cobra.Command, args []string) error {
	switch commandGroup(cmd) {
	case "init", "completion", "help", "version":
		return nil
	}

	var err error
	cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
	if err != nil {
		return withCode(ErrConfigInvalid, fmt.Errorf("failed to load config: %w", err))
	}
	resolvedStatePath = config.ResolveStatePath(statePathFlag, resolvedConfigPath, cfg)
	ui.ConfigureTheme(cfg.UI.Accent)
	ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

	level := logLevelFlag
	if level == "" {
		level = cfg.LogLevel
	}
	format := logging.FormatText
	if jsonOutput {
		format = logging.FormatJSON
	}
	logger = logging.New(os.Stderr, level, format)

	// Commands that work without a graph still pick up its settings when
	// one resolves.
	graphOptional := dbPathFlag != ""
	switch commandGroup(cmd) {
	case "dates", "config":
		graphOptional = true
	}

	resolvedGraphPath, err = resolveGraphPath()
	if err != nil {
		if graphOptional {
			resolvedGraphPath = ""
			return nil
		}
		return err
	}
	return nil
}

// Execute runs the CLI. Failures that escape a command in JSON mode are
// still reported through the envelope.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && jsonOutput {
		code, suggestion := classifyError(err)
		outputError(code, err.Error(), suggestion)
	}
	return err
}

// underscoreFlags lets config-style spellings (--log_level) reach the dashed flags.
func underscoreFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	rootCmd.PersistentPreRunE = persistentPreRunE
	rootCmd.SetGlobalNormalizationFunc(underscoreFlags)
	rootCmd.PersistentFlags().StringVarP(&graphName, "graph", "g", "", "Named graph from config")
	rootCmd.PersistentFlags().StringVar(&graphPathFlag, "graph-path", "", "Explicit path to graph directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&statePathFlag, "state", "", "Path to state file (overrides state_file in config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Use the sqlite block store at this path instead of markdown files")
}

// commandGroup returns the top-level command name below root.
func commandGroup(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Parent() == rootCmd {
			return c.Name()
		}
	}
	return cmd.Name()
}

// resolveGraphPath picks the graph: explicit path > named graph > active
// graph from state > default graph.
func resolveGraphPath() (string, error) {
	var path string
	var err error

	switch {
	case graphPathFlag != "":
		path = graphPathFlag
	case graphName != "":
		path, err = cfg.GetGraphPath(graphName)
		if err != nil {
			return "", withCode(ErrGraphNotFound, fmt.Errorf("graph '%s' not found\n\nRun 'ebb config show' to see configured graphs", graphName))
		}
	default:
		state, stateErr := config.LoadState(resolvedStatePath)
		if stateErr != nil {
			return "", withCode(ErrConfigInvalid, fmt.Errorf("failed to load state: %w", stateErr))
		}
		if active := strings.TrimSpace(state.ActiveGraph); active != "" {
			path, err = cfg.GetGraphPath(active)
			if err == nil {
				break
			}
			if !jsonOutput {
				fmt.Fprintf(os.Stderr, "warning: active graph '%s' not found in config, falling back to default\n", active)
			}
		}
		path, err = cfg.GetDefaultGraphPath()
		if err != nil {
			return "", withCode(ErrGraphNotSpecified, fmt.Errorf(`no graph specified

Either:
  1. Use --graph <name> (from config)
  2. Use --graph-path /path/to/graph
  3. Set default_graph in ~/.config/ebb/config.toml
  4. Run 'ebb init /path/to/new/graph' to create one`))
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", withCode(ErrGraphNotFound, fmt.Errorf("graph not found: %s\n\nRun 'ebb init %s' to create it", path, path))
	}
	return path, nil
}

// getGraphPath returns the resolved graph path, empty when none resolved.
func getGraphPath() string {
	return resolvedGraphPath
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return config.New()
	}
	return cfg
}

// getLogger returns the command logger.
func getLogger() *slog.Logger {
	if logger == nil {
		return logging.Discard()
	}
	return logger
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)

	if _, err := os.Stat(resolvedPath); os.IsNotExist(err) {
		return config.New(), resolvedPath, nil
	}
	loadedCfg, err := config.LoadFrom(resolvedPath)
	if err != nil {
		return nil, "", err
	}
	return loadedCfg, resolvedPath, nil
}

// currentSettings re-reads config.toml and the graph's .ebb.yaml so every
// pass sees the latest values.
func currentSettings() config.Settings {
	settings := getConfig().Settings
	if fresh, _, err := loadGlobalConfigWithPath(); err == nil {
		settings = fresh.Settings
	} else {
		getLogger().Warn("config reload failed, keeping previous settings", "error", err)
	}

	if resolvedGraphPath == "" {
		return settings
	}
	effective, err := config.EffectiveSettings(settings, resolvedGraphPath)
	if err != nil {
		getLogger().Warn("graph settings ignored", "error", err)
		return settings
	}
	return effective
}
