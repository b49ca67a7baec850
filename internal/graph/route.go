package graph

import (
	"context"
	"fmt"
	"os"

	"github.com/aidanlsb/ebbinghaus/internal/config"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
	"github.com/aidanlsb/ebbinghaus/internal/watcher"
)

// CurrentPageName returns the page recorded by SetCurrentPage, or "".
func (g *Graph) CurrentPageName(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.statePath == "" {
		return "", nil
	}
	st, err := config.LoadState(g.statePath)
	if err != nil {
		return "", err
	}
	return st.CurrentPage, nil
}

// SetCurrentPage records name as the open page. Watchers of the state file
// observe this as a route change.
func (g *Graph) SetCurrentPage(name string) error {
	if g.statePath == "" {
		return fmt.Errorf("state path is required")
	}
	st, err := config.LoadState(g.statePath)
	if err != nil {
		return err
	}
	st.CurrentPage = paths.NormalizePageName(name)
	return config.SaveState(g.statePath, st)
}

// OnRouteChanged registers fn to run when the current page changes.
func (g *Graph) OnRouteChanged(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routeHandlers = append(g.routeHandlers, fn)
}

// OnContentChanged registers fn to run when any page file changes.
func (g *Graph) OnContentChanged(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contentHandlers = append(g.contentHandlers, fn)
}

// Watch delivers file changes to the registered handlers until ctx is done.
func (g *Graph) Watch(ctx context.Context) error {
	for _, dir := range []string{g.pagesDir, g.journalsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	w, err := watcher.New(watcher.Config{
		Dirs:      []string{g.pagesDir, g.journalsDir},
		RouteFile: g.statePath,
		Logger:    g.logger,
		OnChange:  g.dispatch,
	})
	if err != nil {
		return err
	}
	return w.Start(ctx)
}

func (g *Graph) dispatch(kind watcher.Kind, path string) {
	g.mu.Lock()
	var handlers []func()
	if kind == watcher.RouteChanged {
		handlers = append(handlers, g.routeHandlers...)
	} else {
		handlers = append(handlers, g.contentHandlers...)
	}
	g.mu.Unlock()

	g.logger.Debug("change", "kind", kind.String(), "path", path)
	for _, fn := range handlers {
		fn()
	}
}
