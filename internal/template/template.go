// Package template renders the query blocks inserted by the insert commands.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/ebbinghaus/internal/dates"
	"github.com/aidanlsb/ebbinghaus/internal/marker"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
)

// FallbackRange is written into inserted RANGE blocks when no valid default
// range is configured.
var FallbackRange = marker.Sentinel{Start: "20250101", End: "20251010"}

// OffsetsQuery is the built-in offsets query block.
const OffsetsQuery = `#+BEGIN_QUERY
{:title "{{title}}"
 :query
 [:find (pull ?p [*])
  :in $ [?d ...]
  :where
  [?p :block/properties ?props]
  [(get ?props :{{property}}) ?c]
  [(contains? ?c ?d)]]
 :inputs [["20000101"]]}
#+END_QUERY
;; {{marker}}`

// RangeQuery is the built-in RANGE query block. The sentinel rides on the
// marker line so it survives the inputs rewrite.
const RangeQuery = `#+BEGIN_QUERY
{:title "{{title}}"
 :query
 [:find (pull ?p [*])
  :in $ [?d ...]
  :where
  [?p :block/properties ?props]
  [(get ?props :{{property}}) ?c]
  [(contains? ?c ?d)]]
 :inputs [["20000101"]]}
#+END_QUERY
;; {{marker}} {{sentinel}}`

// Default titles for the built-in blocks.
const (
	OffsetsTitle = "Ebbinghaus created offsets (exclude today)"
	RangeTitle   = "Created pages in RANGE"
)

// Variables holds the available template variables for substitution.
type Variables struct {
	// Title is the query title shown by the outliner
	Title string
	// Property is the page property holding the created date
	Property string
	// Marker is the marker token appended to the block
	Marker string
	// Sentinel is the RANGE:<start>-<end> token (range blocks only)
	Sentinel string
}

// NewOffsetsVariables creates Variables for an offsets block.
func NewOffsetsVariables(property, mark string) *Variables {
	return &Variables{
		Title:    OffsetsTitle,
		Property: property,
		Marker:   mark,
	}
}

// NewRangeVariables creates Variables for a RANGE block. def is used when
// both of its tokens are valid dates; otherwise FallbackRange is written.
func NewRangeVariables(property, mark string, def *marker.Sentinel) *Variables {
	sentinel := FallbackRange
	if def != nil && dates.IsValidToken(def.Start) && dates.IsValidToken(def.End) {
		sentinel = *def
	}
	return &Variables{
		Title:    RangeTitle,
		Property: property,
		Marker:   mark,
		Sentinel: sentinel.String(),
	}
}

// Load loads a template from a file path inside the graph.
// An empty spec returns fallback. Inline template content is not supported.
func Load(graphPath, templateSpec, templateDir, fallback string) (string, error) {
	if strings.TrimSpace(templateSpec) == "" {
		return fallback, nil
	}

	if strings.Contains(templateSpec, "\n") {
		return "", fmt.Errorf("inline template content is not supported; use a template file path")
	}

	fileRef, err := ResolveFileRef(templateSpec, templateDir)
	if err != nil {
		return "", err
	}

	return loadFromFile(graphPath, fileRef)
}

func normalizeFileRef(filePath string) (string, error) {
	trimmed := strings.TrimSpace(filePath)
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	normalized := filepath.ToSlash(filepath.Clean(trimmed))
	normalized = strings.TrimPrefix(normalized, "./")
	normalized = strings.TrimPrefix(normalized, "/")
	if normalized == "" || normalized == "." {
		return "", fmt.Errorf("template declaration must include a non-empty file path")
	}
	if normalized == ".." || strings.HasPrefix(normalized, "../") {
		return "", fmt.Errorf("template file path cannot escape the graph")
	}
	return normalized, nil
}

// ResolveFileRef normalizes a template file path. Bare filenames are
// resolved under templateDir.
func ResolveFileRef(filePath, templateDir string) (string, error) {
	normalized, err := normalizeFileRef(filePath)
	if err != nil {
		return "", err
	}
	templateDir = paths.NormalizeDirRoot(templateDir)
	if templateDir != "" && !strings.Contains(normalized, "/") {
		normalized = templateDir + normalized
	}
	return normalized, nil
}

// loadFromFile loads template content from a file.
func loadFromFile(graphPath, templatePath string) (string, error) {
	fullPath := filepath.Join(graphPath, filepath.FromSlash(templatePath))

	if err := paths.ValidateWithinGraph(graphPath, fullPath); err != nil {
		return "", fmt.Errorf("template file must be within graph")
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("template file not found: %s", templatePath)
		}
		return "", err
	}

	return strings.TrimRight(string(content), "\n"), nil
}

// Apply substitutes template variables in the content.
// Variables use {{name}} syntax. Unknown variables are left as-is.
// Escaped variables \{{name}} are converted to literal {{name}}.
func Apply(content string, vars *Variables) string {
	if content == "" || vars == nil {
		return content
	}

	content = strings.ReplaceAll(content, "\\{{", "«EBB_ESC_OPEN»")
	content = strings.ReplaceAll(content, "\\}}", "«EBB_ESC_CLOSE»")

	replacements := map[string]string{
		"{{title}}":    vars.Title,
		"{{property}}": vars.Property,
		"{{marker}}":   vars.Marker,
		"{{sentinel}}": vars.Sentinel,
	}
	for placeholder, value := range replacements {
		content = strings.ReplaceAll(content, placeholder, value)
	}

	content = strings.ReplaceAll(content, "«EBB_ESC_OPEN»", "{{")
	content = strings.ReplaceAll(content, "«EBB_ESC_CLOSE»", "}}")

	return content
}
