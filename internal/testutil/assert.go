package testutil

import (
	"os"
	"path/filepath"
	"strings"
)

// AssertFileExists fails the test if the file does not exist.
func (g *TestGraph) AssertFileExists(relPath string) {
	g.t.Helper()
	if _, err := os.Stat(filepath.Join(g.Path, relPath)); os.IsNotExist(err) {
		g.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (g *TestGraph) AssertFileContains(relPath, substr string) {
	g.t.Helper()
	content := g.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		g.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertFileNotContains fails the test if the file contains the substring.
func (g *TestGraph) AssertFileNotContains(relPath, substr string) {
	g.t.Helper()
	content := g.ReadFile(relPath)
	if strings.Contains(content, substr) {
		g.t.Errorf("expected file %s to not contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertPageContains fails the test if the named page does not contain substr.
func (g *TestGraph) AssertPageContains(name, substr string) {
	g.t.Helper()
	content := g.ReadPage(name)
	if !strings.Contains(content, substr) {
		g.t.Errorf("expected page %s to contain %q, got:\n%s", name, substr, content)
	}
}

// AssertPageNotContains fails the test if the named page contains substr.
func (g *TestGraph) AssertPageNotContains(name, substr string) {
	g.t.Helper()
	content := g.ReadPage(name)
	if strings.Contains(content, substr) {
		g.t.Errorf("expected page %s to not contain %q, got:\n%s", name, substr, content)
	}
}
