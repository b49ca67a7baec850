package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/config"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
)

var initGraphName string

const templatesPageSeed = `title:: Templates

- Review queries live here. Run 'ebb insert offsets' with this page open.
`

var initCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Initialize a new graph",
	Long: `Creates a new graph at the specified path.

Creates:
  - pages/ and journals/   (outline pages)
  - pages/<Templates>.md   (the first template page)
  - .ebb.yaml              (graph configuration)
  - .gitignore             (ignores the .ebb/ block store)

With --name the graph is also registered in config.toml.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		fmt.Printf("Initializing graph at: %s\n", path)

		gc := config.DefaultGraphConfig()
		for _, dir := range []string{gc.GetPagesDir(), gc.GetJournalsDir(), ".ebb"} {
			if err := os.MkdirAll(filepath.Join(path, filepath.FromSlash(dir)), 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}

		createdConfig := false
		if _, err := os.Stat(filepath.Join(path, config.GraphConfigFile)); errors.Is(err, os.ErrNotExist) {
			if err := config.SaveGraphConfig(path, gc); err != nil {
				return fmt.Errorf("failed to write %s: %w", config.GraphConfigFile, err)
			}
			createdConfig = true
		}

		templates := config.DefaultSettings().TemplatePageList()[0]
		templatesFile := filepath.Join(path, filepath.FromSlash(gc.GetPagesDir()), paths.PageNameToFileName(templates))
		createdTemplates := false
		if _, err := os.Stat(templatesFile); errors.Is(err, os.ErrNotExist) {
			seed := strings.Replace(templatesPageSeed, "Templates", templates, 1)
			if err := os.WriteFile(templatesFile, []byte(seed), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", templatesFile, err)
			}
			createdTemplates = true
		}

		gitignoreStatus, err := ensureGitignore(path)
		if err != nil {
			return err
		}

		if createdConfig {
			fmt.Printf("✓ Created %s (graph configuration)\n", config.GraphConfigFile)
		} else {
			fmt.Printf("• %s already exists (kept)\n", config.GraphConfigFile)
		}
		if createdTemplates {
			fmt.Printf("✓ Created %s page\n", templates)
		}
		fmt.Println("✓ Ensured pages/, journals/ and .ebb/ exist")
		switch gitignoreStatus {
		case "created":
			fmt.Println("✓ Created .gitignore")
		case "updated":
			fmt.Println("✓ Updated .gitignore (added .ebb/)")
		}

		if initGraphName != "" {
			if err := registerGraph(initGraphName, path); err != nil {
				return err
			}
			fmt.Printf("✓ Registered graph '%s' in %s\n", initGraphName, config.ResolveConfigPath(configPath))
		}

		fmt.Println("\nGraph ready. Open the template page with: ebb open " + templates)
		return nil
	},
}

func ensureGitignore(root string) (string, error) {
	gitignorePath := filepath.Join(root, ".gitignore")
	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}
	if strings.Contains(existing, ".ebb/") {
		return "kept", nil
	}

	status := "created"
	content := "# ebb block store (rebuilt with 'ebb db import')\n.ebb/\n"
	if existing != "" {
		status = "updated"
		content = strings.TrimRight(existing, "\n") + "\n\n" + content
	}
	if err := os.WriteFile(gitignorePath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return status, nil
}

func registerGraph(name, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	c, cfgPath, err := loadGlobalConfigWithPath()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.Graphs == nil {
		c.Graphs = map[string]string{}
	}
	c.Graphs[name] = abs
	if c.DefaultGraph == "" {
		c.DefaultGraph = name
	}
	return config.SaveTo(cfgPath, c)
}

func init() {
	initCmd.Flags().StringVar(&initGraphName, "name", "", "Register the graph in config.toml under this name")
	rootCmd.AddCommand(initCmd)
}
