package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/config"
	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var configGraphDefault bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the global configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show paths, graphs and effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		settings := currentSettings()

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"config_path":   resolvedConfigPath,
				"state_path":    resolvedStatePath,
				"graph_path":    getGraphPath(),
				"default_graph": c.DefaultGraph,
				"graphs":        c.Graphs,
				"settings":      settings,
			}, nil)
			return nil
		}

		fmt.Println(ui.Header("Paths"))
		fmt.Printf("  config  %s\n", resolvedConfigPath)
		fmt.Printf("  state   %s\n", resolvedStatePath)
		if g := getGraphPath(); g != "" {
			fmt.Printf("  graph   %s\n", ui.PageName(g))
		}

		fmt.Println()
		fmt.Println(ui.Header("Graphs"))
		if len(c.Graphs) == 0 {
			fmt.Println(ui.Hint("  (none configured)"))
		}
		for _, name := range c.GraphNames() {
			mark := " "
			if name == c.DefaultGraph {
				mark = "*"
			}
			fmt.Printf("  %s %s  %s\n", mark, name, ui.Hint(c.Graphs[name]))
		}

		fmt.Println()
		fmt.Println(ui.Header("Settings"))
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(settings); err != nil {
			return handleError(ErrInternal, err, "")
		}
		for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
			fmt.Println("  " + line)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefault(resolvedConfigPath)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]any{"config_path": path}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Config at %s", path))
		return nil
	},
}

var configAddGraphCmd = &cobra.Command{
	Use:   "add-graph <name> <path>",
	Short: "Register a named graph",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			return handleErrorMsg(ErrMissingArgument, "graph name is required", "")
		}
		abs, err := filepath.Abs(args[1])
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}

		c := getConfig()
		if c.Graphs == nil {
			c.Graphs = map[string]string{}
		}
		c.Graphs[name] = abs
		if configGraphDefault || c.DefaultGraph == "" {
			c.DefaultGraph = name
		}
		if err := config.SaveTo(resolvedConfigPath, c); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"name":          name,
				"path":          abs,
				"default_graph": c.DefaultGraph,
			}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Added graph %s → %s", ui.PageName(name), abs))
		return nil
	},
}

var configUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active graph in state.toml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, err := getConfig().GetGraphPath(name); err != nil {
			return handleError(ErrGraphNotFound, err, "Run 'ebb config add-graph <name> <path>' first")
		}
		state, err := config.LoadState(resolvedStatePath)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		state.ActiveGraph = name
		if err := config.SaveState(resolvedStatePath, state); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{"active_graph": name}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Active graph: %s", ui.PageName(name)))
		return nil
	},
}

func init() {
	configAddGraphCmd.Flags().BoolVar(&configGraphDefault, "default", false, "Make this the default graph")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configAddGraphCmd)
	configCmd.AddCommand(configUseCmd)
	rootCmd.AddCommand(configCmd)
}
