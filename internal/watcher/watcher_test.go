package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	kinds map[string]Kind
	count int
}

func (r *recorder) record(kind Kind, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kinds == nil {
		r.kinds = map[string]Kind{}
	}
	r.kinds[path] = kind
	r.count++
}

func (r *recorder) snapshot() (map[string]Kind, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]Kind{}
	for k, v := range r.kinds {
		out[k] = v
	}
	return out, r.count
}

func newTestWatcher(t *testing.T, dirs []string, routeFile string, rec *recorder) *Watcher {
	t.Helper()
	w, err := New(Config{Dirs: dirs, RouteFile: routeFile, SettleDelay: 10 * time.Millisecond, OnChange: rec.record})
	require.NoError(t, err)
	return w
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{OnChange: func(Kind, string) {}})
	assert.Error(t, err)

	_, err = New(Config{Dirs: []string{t.TempDir()}})
	assert.Error(t, err)
}

func TestHandleEvent_Classifies(t *testing.T) {
	root := t.TempDir()
	pages := filepath.Join(root, "pages")
	route := filepath.Join(root, "state", "state.toml")

	rec := &recorder{}
	w := newTestWatcher(t, []string{pages}, route, rec)

	w.handleEvent(fsnotify.Event{Name: filepath.Join(pages, "Templates.md"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(pages, "Templates.md"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(pages, ".Templates.md.tmp-1"), Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(pages, "notes.txt"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "elsewhere.md"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: route, Op: fsnotify.Create})

	w.flush(time.Now().Add(time.Second))

	kinds, count := rec.snapshot()
	assert.Equal(t, 2, count, "burst on one path settles into one notification")
	assert.Equal(t, ContentChanged, kinds[filepath.Join(pages, "Templates.md")])
	assert.Equal(t, RouteChanged, kinds[route])
}

func TestFlush_WaitsForSettle(t *testing.T) {
	pages := t.TempDir()
	rec := &recorder{}
	w := newTestWatcher(t, []string{pages}, "", rec)

	w.handleEvent(fsnotify.Event{Name: filepath.Join(pages, "a.md"), Op: fsnotify.Write})
	w.flush(time.Now().Add(-time.Second))

	_, count := rec.snapshot()
	assert.Equal(t, 0, count)
}

func TestStart_DeliversWrites(t *testing.T) {
	pages := t.TempDir()
	rec := &recorder{}
	w := newTestWatcher(t, []string{pages}, "", rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	path := filepath.Join(pages, "Journal.md")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("- hello\n"), 0o644)
		kinds, _ := rec.snapshot()
		kind, ok := kinds[path]
		return ok && kind == ContentChanged
	}, 3*time.Second, 100*time.Millisecond)
}
