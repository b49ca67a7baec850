package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aidanlsb/ebbinghaus/internal/outline"
	"github.com/aidanlsb/ebbinghaus/internal/refresh"
)

// MemHost is an in-memory outliner host. Page lookups fold case.
type MemHost struct {
	mu      sync.Mutex
	pages   map[string][]outline.Block
	current string
	nextID  int

	// Updates records every UpdateBlockText call in order.
	Updates []Update
	// FailUpdates makes UpdateBlockText fail with this error.
	FailUpdates error
	// FailCurrent makes CurrentPageName fail with this error.
	FailCurrent error

	route   []func()
	content []func()
}

// Update is one recorded block write.
type Update struct {
	ID   string
	Text string
}

// NewMemHost returns an empty host.
func NewMemHost() *MemHost {
	return &MemHost{pages: map[string][]outline.Block{}}
}

// SetPage replaces a page's forest.
func (h *MemHost) SetPage(name string, forest []outline.Block) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pages[strings.ToLower(name)] = forest
}

// Page returns the forest stored for a page.
func (h *MemHost) Page(name string) []outline.Block {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pages[strings.ToLower(name)]
}

// SetCurrent sets the current page without firing route handlers.
func (h *MemHost) SetCurrent(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = name
}

// Navigate sets the current page and fires route handlers.
func (h *MemHost) Navigate(name string) {
	h.SetCurrent(name)
	h.fire(true)
}

// Edit fires content handlers.
func (h *MemHost) Edit() {
	h.fire(false)
}

// UpdateCount returns the number of recorded updates.
func (h *MemHost) UpdateCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Updates)
}

func (h *MemHost) fire(route bool) {
	h.mu.Lock()
	list := h.content
	if route {
		list = h.route
	}
	handlers := append([]func(){}, list...)
	h.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// PageBlockTree implements refresh.Store.
func (h *MemHost) PageBlockTree(_ context.Context, page string) ([]outline.Block, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	forest, ok := h.pages[strings.ToLower(page)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", refresh.ErrPageNotFound, page)
	}
	return forest, nil
}

// UpdateBlockText implements refresh.Store.
func (h *MemHost) UpdateBlockText(_ context.Context, id, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailUpdates != nil {
		return h.FailUpdates
	}
	for _, forest := range h.pages {
		if setText(forest, id, text) {
			h.Updates = append(h.Updates, Update{ID: id, Text: text})
			return nil
		}
	}
	return errors.New("block not found: " + id)
}

func setText(blocks []outline.Block, id, text string) bool {
	for i := range blocks {
		if blocks[i].ID == id {
			blocks[i].Text = text
			return true
		}
		if setText(blocks[i].Children, id, text) {
			return true
		}
	}
	return false
}

// CurrentPageName returns the current page.
func (h *MemHost) CurrentPageName(context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailCurrent != nil {
		return "", h.FailCurrent
	}
	return h.current, nil
}

// InsertAtCursor appends a top-level block to the current page.
func (h *MemHost) InsertAtCursor(_ context.Context, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == "" {
		return errors.New("no current page")
	}
	h.nextID++
	key := strings.ToLower(h.current)
	h.pages[key] = append(h.pages[key], outline.Block{ID: fmt.Sprintf("ins-%d", h.nextID), Text: text})
	return nil
}

// OnRouteChanged registers a route handler.
func (h *MemHost) OnRouteChanged(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.route = append(h.route, fn)
}

// OnContentChanged registers a content handler.
func (h *MemHost) OnContentChanged(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.content = append(h.content, fn)
}
