// Package watcher turns filesystem activity in a graph into coalesced
// content-changed and route-changed notifications.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Kind classifies a change.
type Kind int

const (
	// ContentChanged means a page file was written, created or removed.
	ContentChanged Kind = iota
	// RouteChanged means the file recording the current page changed.
	RouteChanged
)

func (k Kind) String() string {
	if k == RouteChanged {
		return "route"
	}
	return "content"
}

// Watcher monitors page directories and a route file.
type Watcher struct {
	dirs      []string
	routeFile string

	// Configuration
	settleDelay time.Duration
	logger      *slog.Logger

	// Internal state
	fsWatcher *fsnotify.Watcher
	pending   map[string]pendingChange
	mu        sync.Mutex

	// Callbacks
	onChange func(kind Kind, path string)
}

type pendingChange struct {
	kind Kind
	at   time.Time
}

// Config holds configuration options for the Watcher.
type Config struct {
	// Dirs are watched recursively for .md changes.
	Dirs []string
	// RouteFile is watched through its parent directory; may be empty.
	RouteFile   string
	SettleDelay time.Duration // Default: 100ms
	Logger      *slog.Logger
	OnChange    func(kind Kind, path string)
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Dirs) == 0 && cfg.RouteFile == "" {
		return nil, fmt.Errorf("nothing to watch")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}

	settle := cfg.SettleDelay
	if settle == 0 {
		settle = 100 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	routeFile := cfg.RouteFile
	if routeFile != "" {
		routeFile = filepath.Clean(routeFile)
	}

	return &Watcher{
		dirs:        cfg.Dirs,
		routeFile:   routeFile,
		settleDelay: settle,
		logger:      logger.With("component", "watcher"),
		pending:     make(map[string]pendingChange),
		onChange:    cfg.OnChange,
	}, nil
}

// Start begins watching. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	for _, dir := range w.dirs {
		if err := w.addWatchRecursive(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	if w.routeFile != "" {
		routeDir := filepath.Dir(w.routeFile)
		if err := os.MkdirAll(routeDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", routeDir, err)
		}
		if err := w.fsWatcher.Add(routeDir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", routeDir, err)
		}
	}

	w.logger.Debug("watching", "dirs", w.dirs, "route_file", w.routeFile)

	go w.processSettled(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// handleEvent classifies a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if w.routeFile != "" && path == w.routeFile {
		if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
			w.schedule(path, RouteChanged)
		}
		return
	}

	if !strings.HasSuffix(path, ".md") {
		if event.Op&fsnotify.Create != 0 && w.underDirs(path) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				_ = w.addWatchRecursive(path)
			}
		}
		return
	}

	if !w.underDirs(path) || shouldIgnore(path) {
		return
	}

	w.logger.Debug("event", "op", event.Op.String(), "path", path)
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.schedule(path, ContentChanged)
	}
}

// schedule records a change; bursts on one path settle into one notification.
func (w *Watcher) schedule(path string, kind Kind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = pendingChange{kind: kind, at: time.Now()}
}

// processSettled flushes pending changes after the settle delay.
func (w *Watcher) processSettled(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flush(time.Now())
		}
	}
}

// flush delivers changes older than the settle delay.
func (w *Watcher) flush(now time.Time) {
	type ready struct {
		path string
		kind Kind
	}

	w.mu.Lock()
	var out []ready
	for path, p := range w.pending {
		if now.Sub(p.at) >= w.settleDelay {
			out = append(out, ready{path: path, kind: p.kind})
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, r := range out {
		w.onChange(r.kind, r.path)
	}
}

// addWatchRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if shouldIgnoreDir(path) && path != root {
				return filepath.SkipDir
			}
			if err := w.fsWatcher.Add(path); err != nil {
				w.logger.Debug("failed to watch", "path", path, "error", err)
			}
		}
		return nil
	})
}

func (w *Watcher) underDirs(path string) bool {
	for _, dir := range w.dirs {
		rel, err := filepath.Rel(filepath.Clean(dir), path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// shouldIgnore skips editor temp files and dotfiles (including atomic-write temps).
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}

// shouldIgnoreDir returns true if the directory should not be watched.
func shouldIgnoreDir(path string) bool {
	base := filepath.Base(path)
	return base == ".git" || base == ".trash" || base == "node_modules" || base == "logseq"
}
