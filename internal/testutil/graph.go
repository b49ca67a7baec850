// Package testutil provides reusable test utilities for ebb tests: temporary
// markdown graphs, an in-memory host and a CLI runner.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/ebbinghaus/internal/paths"
)

// TestGraph represents a temporary markdown graph plus an isolated config and
// state file.
type TestGraph struct {
	Path       string
	ConfigPath string
	StatePath  string

	t        *testing.T
	settings string
	files    map[string]string
}

// NewTestGraph creates a new test graph builder.
// Call Build() to create the actual graph directory.
func NewTestGraph(t *testing.T) *TestGraph {
	t.Helper()
	return &TestGraph{
		t:     t,
		files: make(map[string]string),
	}
}

// WithPage adds a page under pages/ using the outliner's file naming.
func (g *TestGraph) WithPage(name, content string) *TestGraph {
	g.files["pages/"+paths.PageNameToFileName(name)] = content
	return g
}

// WithJournal adds a journal page under journals/.
func (g *TestGraph) WithJournal(name, content string) *TestGraph {
	g.files["journals/"+paths.PageNameToFileName(name)] = content
	return g
}

// WithFile adds a file to the graph.
// The path is relative to the graph root.
func (g *TestGraph) WithFile(path, content string) *TestGraph {
	g.files[path] = content
	return g
}

// WithGraphYAML sets the .ebb.yaml content for the graph.
func (g *TestGraph) WithGraphYAML(yaml string) *TestGraph {
	g.files[".ebb.yaml"] = yaml
	return g
}

// WithSettingsTOML sets the body of the [settings] table in config.toml.
func (g *TestGraph) WithSettingsTOML(body string) *TestGraph {
	g.settings = body
	return g
}

// Build creates the graph directory, config.toml and all configured files.
// Returns the TestGraph for method chaining.
func (g *TestGraph) Build() *TestGraph {
	g.t.Helper()

	g.Path = g.t.TempDir()
	home := g.t.TempDir()
	g.ConfigPath = filepath.Join(home, "config.toml")
	g.StatePath = filepath.Join(home, "state.toml")

	cfg := "[settings]\n" + g.settings + "\n"
	g.write(g.ConfigPath, cfg)

	for path, content := range g.files {
		g.write(filepath.Join(g.Path, filepath.FromSlash(path)), content)
	}

	return g
}

func (g *TestGraph) write(fullPath, content string) {
	g.t.Helper()

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		g.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		g.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a file from the graph.
// Returns the content as a string.
func (g *TestGraph) ReadFile(relPath string) string {
	g.t.Helper()
	fullPath := filepath.Join(g.Path, filepath.FromSlash(relPath))
	content, err := os.ReadFile(fullPath)
	if err != nil {
		g.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// ReadPage reads a page from pages/ by name.
func (g *TestGraph) ReadPage(name string) string {
	g.t.Helper()
	return g.ReadFile("pages/" + paths.PageNameToFileName(name))
}

// FileExists checks if a file exists in the graph.
func (g *TestGraph) FileExists(relPath string) bool {
	g.t.Helper()
	_, err := os.Stat(filepath.Join(g.Path, filepath.FromSlash(relPath)))
	return err == nil
}

// OffsetsPage returns a page body with one offsets query block under a parent.
func OffsetsPage(marker string) string {
	return "- Review\n" +
		"\t- #+BEGIN_QUERY\n" +
		"\t  {:title \"created\"\n" +
		"\t   :inputs [[\"20000101\"]]}\n" +
		"\t  #+END_QUERY\n" +
		"\t  ;; " + marker + "\n"
}

// RangePage returns a page body with one RANGE query block under a parent.
func RangePage(marker, sentinel string) string {
	return "- Reading\n" +
		"\t- #+BEGIN_QUERY\n" +
		"\t  {:title \"range\"\n" +
		"\t   :inputs [[\"20000101\"]]}\n" +
		"\t  #+END_QUERY\n" +
		"\t  ;; " + marker + " " + sentinel + "\n"
}
