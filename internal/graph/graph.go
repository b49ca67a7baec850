// Package graph is the markdown outliner host: a directory of pages/ and
// journals/ outline files, a machine-local "current page" and file watching.
package graph

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aidanlsb/ebbinghaus/internal/config"
	"github.com/aidanlsb/ebbinghaus/internal/parser"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
	"github.com/aidanlsb/ebbinghaus/internal/refresh"
	"github.com/aidanlsb/ebbinghaus/internal/slugs"
)

var (
	// ErrPageNotFound is returned when no page file matches a name.
	ErrPageNotFound = refresh.ErrPageNotFound
	// ErrBlockNotFound is returned when a block id no longer resolves.
	ErrBlockNotFound = errors.New("block not found")
	// ErrNoCurrentPage is returned by InsertAtCursor when no page is open.
	ErrNoCurrentPage = errors.New("no current page")
)

// Graph is a markdown graph on disk.
type Graph struct {
	root        string
	pagesDir    string
	journalsDir string
	statePath   string
	logger      *slog.Logger

	mu              sync.Mutex
	routeHandlers   []func()
	contentHandlers []func()
}

// Options configure Open.
type Options struct {
	// Config is the graph's .ebb.yaml; nil uses the default layout.
	Config *config.GraphConfig
	// StatePath is the state.toml recording the current page.
	StatePath string
	Logger    *slog.Logger
}

// PageInfo describes one page file.
type PageInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	File    string `json:"file"`
	Journal bool   `json:"journal,omitempty"`
}

// Open opens the graph rooted at root.
func Open(root string, opts Options) (*Graph, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve graph path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open graph: %s is not a directory", abs)
	}

	gc := opts.Config
	if gc == nil {
		gc = config.DefaultGraphConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Graph{
		root:        abs,
		pagesDir:    filepath.Join(abs, filepath.FromSlash(gc.GetPagesDir())),
		journalsDir: filepath.Join(abs, filepath.FromSlash(gc.GetJournalsDir())),
		statePath:   opts.StatePath,
		logger:      logger.With("component", "graph"),
	}, nil
}

// Root returns the absolute graph root.
func (g *Graph) Root() string { return g.root }

// ListPages returns every page in pages/ and journals/, sorted by name.
func (g *Graph) ListPages() ([]PageInfo, error) {
	var out []PageInfo
	for _, dir := range []struct {
		path    string
		journal bool
	}{{g.pagesDir, false}, {g.journalsDir, true}} {
		err := filepath.WalkDir(dir.path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				if path != dir.path && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".md") || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			if err := paths.ValidateWithinGraph(g.root, path); err != nil {
				return nil
			}
			info, err := g.pageInfo(path, dir.journal)
			if err != nil {
				g.logger.Warn("skipping unreadable page", "path", path, "error", err)
				return nil
			}
			out = append(out, info)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", dir.path, err)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// FindPage resolves a page name: title:: property, then file name, then slug,
// all case-insensitive.
func (g *Graph) FindPage(name string) (PageInfo, error) {
	name = paths.NormalizePageName(name)
	if name == "" {
		return PageInfo{}, fmt.Errorf("%w: empty name", ErrPageNotFound)
	}

	// Fast path: the conventional file exists and carries no conflicting title.
	direct := filepath.Join(g.pagesDir, paths.PageNameToFileName(name))
	if info, err := g.pageInfo(direct, false); err == nil && strings.EqualFold(info.Name, name) {
		return info, nil
	}

	all, err := g.ListPages()
	if err != nil {
		return PageInfo{}, err
	}
	for _, p := range all {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	for _, p := range all {
		if strings.EqualFold(paths.FileNameToPageName(p.File), name) {
			return p, nil
		}
	}
	for _, p := range all {
		if slugs.SamePage(p.Name, name) {
			return p, nil
		}
	}
	return PageInfo{}, fmt.Errorf("%w: %s", ErrPageNotFound, name)
}

// ReadPage returns the raw content of a page.
func (g *Graph) ReadPage(name string) (PageInfo, string, error) {
	info, err := g.FindPage(name)
	if err != nil {
		return PageInfo{}, "", err
	}
	data, err := os.ReadFile(g.abs(info.File))
	if err != nil {
		return PageInfo{}, "", fmt.Errorf("read page %s: %w", info.File, err)
	}
	return info, string(data), nil
}

func (g *Graph) pageInfo(path string, journal bool) (PageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PageInfo{}, err
	}
	rel, err := filepath.Rel(g.root, path)
	if err != nil {
		return PageInfo{}, err
	}
	content := string(data)

	name := paths.FileNameToPageName(path)
	if title := parser.ParseOutline(content).Properties["title"]; title != "" {
		name = paths.NormalizePageName(title)
	}
	title := parser.PageTitle(content)
	if title == "" {
		title = name
	}
	return PageInfo{Name: name, Title: title, File: filepath.ToSlash(rel), Journal: journal}, nil
}

func (g *Graph) abs(rel string) string {
	return filepath.Join(g.root, filepath.FromSlash(rel))
}
