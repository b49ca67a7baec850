// Package parser reads markdown outline pages: the block tree with line spans
// for surgical edits, page properties, and headings.
package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading represents a parsed heading.
type Heading struct {
	Level int
	Text  string
	Line  int // 1-indexed
}

// ExtractHeadings extracts headings from markdown content using goldmark.
// Headings nested in list items (outline blocks) are included.
func ExtractHeadings(content string) []Heading {
	var headings []Heading

	src := []byte(content)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	lineStarts := computeLineStarts(content)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
			if t, ok := child.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
			}
		}
		headingText := strings.TrimSpace(b.String())
		if headingText == "" {
			return ast.WalkContinue, nil
		}

		line := 1
		if heading.Lines().Len() > 0 {
			line = offsetToLine(lineStarts, heading.Lines().At(0).Start) + 1
		}
		headings = append(headings, Heading{Level: heading.Level, Text: headingText, Line: line})
		return ast.WalkContinue, nil
	})

	return headings
}

// PageTitle returns the page's display title: the title:: property, else the
// first heading, else "".
func PageTitle(content string) string {
	if title := ParseOutline(content).Properties["title"]; title != "" {
		return title
	}
	if hs := ExtractHeadings(content); len(hs) > 0 {
		return hs[0].Text
	}
	return ""
}

// computeLineStarts computes the byte offset of each line start.
func computeLineStarts(content string) []int {
	starts := []int{0}
	for i, c := range content {
		if c == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// offsetToLine converts a byte offset to a 0-indexed line number.
func offsetToLine(lineStarts []int, offset int) int {
	for i := len(lineStarts) - 1; i >= 0; i-- {
		if lineStarts[i] <= offset {
			return i
		}
	}
	return 0
}
