// Package paths provides canonical helpers for converting between:
// - graph-relative markdown file paths (e.g. "pages/reading___2025.md")
// - outliner page names (e.g. "reading/2025")
//
// It also centralizes the "stay inside the graph" check used by every
// component that reads or writes files on behalf of a page.
package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// NamespaceSeparator replaces "/" in page names when they are stored as files.
const NamespaceSeparator = "___"

// ErrPathOutsideGraph is returned when a path resolves outside the graph root.
var ErrPathOutsideGraph = errors.New("path is outside the graph")

// NormalizeDirRoot normalizes a directory root to have:
// - no leading slash
// - exactly one trailing slash (unless empty)
//
// Examples:
// - "/pages/" -> "pages/"
// - "pages"   -> "pages/"
// - ""        -> ""
func NormalizeDirRoot(root string) string {
	root = filepath.ToSlash(root)
	root = strings.Trim(root, "/")
	if root == "" {
		return ""
	}
	return root + "/"
}

// NormalizePageName folds ideographic spaces to ASCII spaces and trims.
func NormalizePageName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "　", " "))
}

// PageNameToFileName converts a page name to its markdown file base name.
// Namespaced names ("a/b") use the triple-underscore separator.
func PageNameToFileName(name string) string {
	name = NormalizePageName(name)
	return strings.ReplaceAll(name, "/", NamespaceSeparator) + ".md"
}

// FileNameToPageName converts a markdown file base name back to a page name.
func FileNameToPageName(base string) string {
	base = filepath.Base(filepath.ToSlash(base))
	base = strings.TrimSuffix(base, ".md")
	return strings.ReplaceAll(base, NamespaceSeparator, "/")
}

// ValidateWithinGraph ensures path (absolute or relative to the working
// directory) resolves inside root.
func ValidateWithinGraph(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve graph path: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathOutsideGraph, path)
	}
	return nil
}
