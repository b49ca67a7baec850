// Package marker recognises the textual conventions embedded in block content:
// marker tokens, RANGE sentinels and the query :inputs clause.
package marker

import (
	"regexp"
	"strings"
)

var (
	sentinelRegex = regexp.MustCompile(`RANGE:(\d{8})\s*(?:-|\.\.)\s*(\d{8})`)
	inputsRegex   = regexp.MustCompile(`(?s):inputs\s*\[\[.*?\]\]`)
)

// inputsOpen is the clause prefix; continuation lines align under the first element.
const inputsOpen = ":inputs [["

// Sentinel is a RANGE:<start>-<end> token found in block text.
// Tokens are not calendar-checked here.
type Sentinel struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// String renders the sentinel in its canonical dash form.
func (s Sentinel) String() string {
	return "RANGE:" + s.Start + "-" + s.End
}

// Contains reports whether text carries the marker (case-sensitive substring).
func Contains(text, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(text, marker)
}

// ExtractRangeSentinel returns the first RANGE sentinel in text.
func ExtractRangeSentinel(text string) (Sentinel, bool) {
	m := sentinelRegex.FindStringSubmatch(text)
	if m == nil {
		return Sentinel{}, false
	}
	return Sentinel{Start: m[1], End: m[2]}, true
}

// HasInputsClause reports whether text contains a bounded :inputs [[ ... ]] clause.
func HasInputsClause(text string) bool {
	return inputsRegex.MatchString(text)
}

// FormatInputs renders dates as a single-row :inputs clause.
func FormatInputs(dates []string) string {
	var b strings.Builder
	b.WriteString(inputsOpen)
	pad := strings.Repeat(" ", len(inputsOpen))
	for i, d := range dates {
		if i > 0 {
			b.WriteString("\n")
			b.WriteString(pad)
		}
		b.WriteString(`"`)
		b.WriteString(d)
		b.WriteString(`"`)
	}
	b.WriteString("]]")
	return b.String()
}

// ReplaceInputs swaps the first :inputs clause in text for clause.
// It reports false when text has no clause or already holds exactly clause.
func ReplaceInputs(text, clause string) (string, bool) {
	loc := inputsRegex.FindStringIndex(text)
	if loc == nil {
		return text, false
	}
	if text[loc[0]:loc[1]] == clause {
		return text, false
	}
	return text[:loc[0]] + clause + text[loc[1]:], true
}
