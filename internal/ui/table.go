package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table aligns rows into columns separated by two spaces. Cell widths are
// measured with lipgloss so styled cells line up too.
type Table struct {
	cols   int
	rows   [][]string
	widths []int
}

// NewTable creates a table with cols columns.
func NewTable(cols int) *Table {
	return &Table{cols: cols, widths: make([]int, cols)}
}

// AddRow appends a row. Missing cells are blank and extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, t.cols)
	copy(row, cells)
	for i, c := range row {
		t.widths[i] = max(t.widths[i], lipgloss.Width(c))
	}
	t.rows = append(t.rows, row)
}

// String renders the table. The last column is never padded.
func (t *Table) String() string {
	var sb strings.Builder
	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", t.widths[i]-lipgloss.Width(cell)))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// List renders items as an indented bullet list.
type List struct {
	items []string
}

// NewList creates an empty list.
func NewList() *List {
	return &List{}
}

// Add appends an item.
func (l *List) Add(item string) {
	l.items = append(l.items, item)
}

// String renders one "  • item" line per item.
func (l *List) String() string {
	var sb strings.Builder
	for _, item := range l.items {
		sb.WriteString("  • " + item + "\n")
	}
	return sb.String()
}
