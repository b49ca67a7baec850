package ui

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// DefaultTermWidth is the fallback terminal width when detection fails.
const DefaultTermWidth = 120

// minRenderWidth keeps wrapped page output readable in narrow panes.
const minRenderWidth = 20

// DisplayContext describes the terminal stdout is attached to.
type DisplayContext struct {
	TermWidth int
	IsTTY     bool
}

// NewDisplayContext detects stdout's terminal width, falling back to
// DefaultTermWidth when stdout is not a terminal.
func NewDisplayContext() *DisplayContext {
	fd := os.Stdout.Fd()
	d := &DisplayContext{TermWidth: DefaultTermWidth, IsTTY: term.IsTerminal(fd)}
	if d.IsTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			d.TermWidth = w
		}
	}
	return d
}

// AvailableWidth returns the usable width after a left margin, never less
// than a small minimum.
func (d *DisplayContext) AvailableWidth(leftMargin int) int {
	return max(d.TermWidth-leftMargin, minRenderWidth)
}
