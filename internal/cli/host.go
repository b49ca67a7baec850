package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aidanlsb/ebbinghaus/internal/automation"
	"github.com/aidanlsb/ebbinghaus/internal/blockdb"
	"github.com/aidanlsb/ebbinghaus/internal/config"
	"github.com/aidanlsb/ebbinghaus/internal/graph"
)

// host is the block store a command works against: the markdown graph, or
// the sqlite block store when --db is given.
type host interface {
	automation.Host
	// Kind is "graph" or "db".
	Kind() string
	// Open records name as the current page.
	Open(ctx context.Context, name string, create bool) (string, error)
	Pages(ctx context.Context) ([]pageRow, error)
	Watch(ctx context.Context) error
	Close() error
}

// pageRow is one line of `ebb pages`.
type pageRow struct {
	Name      string     `json:"name"`
	Title     string     `json:"title,omitempty"`
	File      string     `json:"file,omitempty"`
	Journal   bool       `json:"journal,omitempty"`
	Blocks    int        `json:"blocks,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type graphHost struct {
	*graph.Graph
}

func (h graphHost) Kind() string { return "graph" }

func (h graphHost) Open(_ context.Context, name string, create bool) (string, error) {
	info, err := h.FindPage(name)
	if errors.Is(err, graph.ErrPageNotFound) && create {
		info, err = h.CreatePage(name)
	}
	if err != nil {
		return "", err
	}
	if err := h.SetCurrentPage(info.Name); err != nil {
		return "", err
	}
	return info.Name, nil
}

func (h graphHost) Pages(context.Context) ([]pageRow, error) {
	infos, err := h.ListPages()
	if err != nil {
		return nil, err
	}
	rows := make([]pageRow, 0, len(infos))
	for _, p := range infos {
		rows = append(rows, pageRow{Name: p.Name, Title: p.Title, File: p.File, Journal: p.Journal})
	}
	return rows, nil
}

func (h graphHost) Close() error { return nil }

type dbHost struct {
	*blockdb.DB
}

func (h dbHost) Kind() string { return "db" }

func (h dbHost) Open(ctx context.Context, name string, create bool) (string, error) {
	if _, err := h.PageBlockTree(ctx, name); err != nil {
		if !errors.Is(err, blockdb.ErrPageNotFound) || !create {
			return "", err
		}
		if _, err := h.ImportPage(ctx, name, nil); err != nil {
			return "", err
		}
	}
	if err := h.SetCurrentPage(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

func (h dbHost) Pages(ctx context.Context) ([]pageRow, error) {
	pages, err := h.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]pageRow, 0, len(pages))
	for _, p := range pages {
		updated := p.UpdatedAt
		rows = append(rows, pageRow{Name: p.Name, Blocks: p.Blocks, UpdatedAt: &updated})
	}
	return rows, nil
}

func (h dbHost) Watch(ctx context.Context) error {
	return h.DB.Watch(ctx, blockdb.DefaultPollInterval)
}

// openHost opens the block store selected by the global flags.
func openHost() (host, error) {
	if dbPathFlag != "" {
		db, err := blockdb.Open(dbPathFlag, getLogger())
		if err != nil {
			return nil, withCode(ErrDatabaseError, err)
		}
		return dbHost{db}, nil
	}
	return openGraph()
}

func openGraph() (graphHost, error) {
	if resolvedGraphPath == "" {
		return graphHost{}, withCode(ErrGraphNotSpecified, fmt.Errorf("no graph specified"))
	}
	gc, err := config.LoadGraphConfig(resolvedGraphPath)
	if err != nil {
		return graphHost{}, withCode(ErrConfigInvalid, err)
	}
	g, err := graph.Open(resolvedGraphPath, graph.Options{
		Config:    gc,
		StatePath: resolvedStatePath,
		Logger:    getLogger(),
	})
	if err != nil {
		return graphHost{}, withCode(ErrGraphNotFound, err)
	}
	return graphHost{g}, nil
}

// newPlugin wires the automation plugin to h with settings read fresh per pass.
func newPlugin(h host) *automation.Plugin {
	root := ""
	if h.Kind() == "graph" {
		root = resolvedGraphPath
	}
	return automation.New(h, currentSettings, automation.Options{
		GraphRoot: root,
		Logger:    getLogger(),
	})
}
