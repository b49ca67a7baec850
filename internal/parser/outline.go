package parser

import (
	"regexp"
	"strings"
)

// Node is one outline block as it appears in a page file.
//
// StartLine/EndLine are the 0-indexed half-open span of the block's own lines
// (bullet plus continuation lines); children follow the span.
type Node struct {
	Text      string
	Indent    string
	StartLine int
	EndLine   int
	Path      []int
	Children  []*Node
}

// Page is a parsed outline file.
type Page struct {
	// Lines holds the file split on "\n", without the trailing empty element.
	Lines []string
	// Properties are "key:: value" lines before the first bullet, lowercased keys.
	Properties map[string]string
	Roots      []*Node

	trailingNewline bool
}

var (
	bulletRe   = regexp.MustCompile(`^([ \t]*)-(?: (.*))?$`)
	propertyRe = regexp.MustCompile(`^([A-Za-z][\w-]*)::\s*(.*)$`)
)

// ParseOutline parses markdown outline content.
//
// Bullets ("- ") open blocks; nesting follows indent width with a tab counted
// as two columns. Non-bullet lines continue the current block, and lines inside
// a fenced code block never start a new block.
func ParseOutline(content string) *Page {
	p := &Page{Properties: map[string]string{}}
	if content != "" {
		p.trailingNewline = strings.HasSuffix(content, "\n")
		p.Lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	}

	type frame struct {
		width int
		node  *Node
	}
	var (
		stack   []frame
		current *Node
		rest    []string
		inFence bool
	)

	flush := func() {
		if current == nil {
			return
		}
		// Trailing blank lines stay outside the block's span.
		for len(rest) > 0 && strings.TrimSpace(rest[len(rest)-1]) == "" {
			rest = rest[:len(rest)-1]
		}
		current.EndLine = current.StartLine + 1 + len(rest)
		if len(rest) > 0 {
			current.Text += "\n" + strings.Join(rest, "\n")
		}
		rest = nil
	}

	for i, line := range p.Lines {
		if current != nil && inFence {
			rest = append(rest, continuation(line, current.Indent))
			if isFence(line) {
				inFence = false
			}
			continue
		}

		m := bulletRe.FindStringSubmatch(line)
		if m == nil {
			if current == nil {
				if pm := propertyRe.FindStringSubmatch(strings.TrimSpace(line)); pm != nil {
					p.Properties[strings.ToLower(pm[1])] = strings.TrimSpace(pm[2])
				}
				continue
			}
			rest = append(rest, continuation(line, current.Indent))
			if isFence(line) {
				inFence = true
			}
			continue
		}

		flush()
		indent := m[1]
		width := indentWidth(indent)
		node := &Node{Text: m[2], Indent: indent, StartLine: i, EndLine: i + 1}
		if isFence(m[2]) {
			inFence = true
		}

		for len(stack) > 0 && stack[len(stack)-1].width >= width {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			node.Path = []int{len(p.Roots)}
			p.Roots = append(p.Roots, node)
		} else {
			parent := stack[len(stack)-1].node
			node.Path = append(append([]int{}, parent.Path...), len(parent.Children))
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, frame{width: width, node: node})
		current = node
	}
	flush()

	return p
}

// Find returns the node at a positional path, or nil.
func (p *Page) Find(path []int) *Node {
	nodes := p.Roots
	var found *Node
	for _, i := range path {
		if i < 0 || i >= len(nodes) {
			return nil
		}
		found = nodes[i]
		nodes = found.Children
	}
	return found
}

// ReplaceBlock returns the page content with n's own lines re-rendered for text.
// Children and every other line are left untouched.
func (p *Page) ReplaceBlock(n *Node, text string) string {
	out := make([]string, 0, len(p.Lines)+strings.Count(text, "\n"))
	out = append(out, p.Lines[:n.StartLine]...)
	out = append(out, RenderBlock(n.Indent, text)...)
	out = append(out, p.Lines[n.EndLine:]...)
	return p.join(out)
}

// AppendRoot returns the page content with a new top-level block at the end.
func (p *Page) AppendRoot(text string) string {
	lines := append([]string{}, p.Lines...)
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	lines = append(lines, RenderBlock("", text)...)
	return strings.Join(lines, "\n") + "\n"
}

// String renders the page back to file content.
func (p *Page) String() string {
	return p.join(p.Lines)
}

func (p *Page) join(lines []string) string {
	s := strings.Join(lines, "\n")
	if p.trailingNewline {
		s += "\n"
	}
	return s
}

// RenderBlock renders block text as outline lines at the given indent.
func RenderBlock(indent, text string) []string {
	parts := strings.Split(text, "\n")
	lines := make([]string, len(parts))
	for i, part := range parts {
		switch {
		case i == 0 && part == "":
			lines[i] = indent + "-"
		case i == 0:
			lines[i] = indent + "- " + part
		case part == "":
			lines[i] = ""
		default:
			lines[i] = indent + "  " + part
		}
	}
	return lines
}

func continuation(line, indent string) string {
	if strings.HasPrefix(line, indent+"  ") {
		return line[len(indent)+2:]
	}
	if strings.TrimSpace(line) == "" {
		return ""
	}
	return strings.TrimLeft(line, " \t")
}

func indentWidth(indent string) int {
	w := 0
	for _, r := range indent {
		if r == '\t' {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func isFence(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "```")
}
