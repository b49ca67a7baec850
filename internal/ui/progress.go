package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Progress redraws "message (n/total)" in place. It stays silent when the
// output is not a terminal.
type Progress struct {
	out     io.Writer
	tty     bool
	total   int
	current int
	message string
	mu      sync.Mutex
}

// NewProgress creates a progress line on stdout.
func NewProgress(message string, total int) *Progress {
	return &Progress{
		out:     os.Stdout,
		tty:     isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		total:   total,
		message: message,
	}
}

// Increment advances the count by one and redraws.
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	if p.tty {
		fmt.Fprintf(p.out, "\r%s %s", p.message, Muted.Render(fmt.Sprintf("(%d/%d)", p.current, p.total)))
	}
}

// Current returns how many steps have completed.
func (p *Progress) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Done clears the progress line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty {
		fmt.Fprint(p.out, "\r\033[K")
	}
}
