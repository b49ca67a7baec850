// Package automation wires refresh passes to an outliner host: manual update
// and insert commands, plus the route, edit and daily triggers.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aidanlsb/ebbinghaus/internal/config"
	"github.com/aidanlsb/ebbinghaus/internal/refresh"
	"github.com/aidanlsb/ebbinghaus/internal/schedule"
	"github.com/aidanlsb/ebbinghaus/internal/template"
)

// Host is the outliner the plugin drives.
type Host interface {
	refresh.Store
	CurrentPageName(ctx context.Context) (string, error)
	InsertAtCursor(ctx context.Context, text string) error
	OnRouteChanged(fn func())
	OnContentChanged(fn func())
}

// SettingsFunc returns the current settings. It is called on every use so
// configuration edits apply to the next pass.
type SettingsFunc func() config.Settings

// TemplateResult is the outcome of an offsets pass over the template pages.
type TemplateResult struct {
	Pages []string      `json:"pages"`
	Stats refresh.Stats `json:"stats"`
}

// Options configure New.
type Options struct {
	// GraphRoot anchors template file lookups; empty disables template files.
	GraphRoot string
	Logger    *slog.Logger
	// Now overrides the clock used for offsets; nil uses time.Now.
	Now func() time.Time
	// Daily overrides the midnight scheduler (tests).
	Daily *schedule.Daily
}

// Plugin runs passes against one host. Passes never overlap.
type Plugin struct {
	host     Host
	settings SettingsFunc
	engine   *refresh.Engine
	logger   *slog.Logger
	root     string
	now      func() time.Time
	daily    *schedule.Daily

	mu sync.Mutex
	wg sync.WaitGroup
}

// New creates a Plugin.
func New(host Host, settings SettingsFunc, opts Options) *Plugin {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if settings == nil {
		settings = config.DefaultSettings
	}
	return &Plugin{
		host:     host,
		settings: settings,
		engine:   refresh.New(host, logger),
		logger:   logger,
		root:     opts.GraphRoot,
		now:      now,
		daily:    opts.Daily,
	}
}

// MatchTemplatePage reports whether name is a configured template page.
func (p *Plugin) MatchTemplatePage(name string) bool {
	return p.settings().MatchTemplatePage(name)
}

// UpdateTemplatePagesOnce runs an offsets pass over every template page.
func (p *Plugin) UpdateTemplatePagesOnce(ctx context.Context) (TemplateResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateTemplates(ctx)
}

// UpdateCurrentPageRangeOnce runs a range pass on the current page. Without a
// current page it returns zero stats.
func (p *Plugin) UpdateCurrentPageRangeOnce(ctx context.Context) (refresh.Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateCurrentRange(ctx)
}

func (p *Plugin) updateTemplates(ctx context.Context) (TemplateResult, error) {
	s := p.settings()
	pages := s.TemplatePageList()
	stats, err := p.engine.RefreshPages(ctx, pages, p.offsetsOptions(s))
	res := TemplateResult{Pages: pages, Stats: stats}
	if err != nil {
		return res, fmt.Errorf("update template pages: %w", err)
	}
	p.logger.Info("template offsets updated",
		"pages", len(pages),
		"marked", stats.Marked,
		"inputs_found", stats.InputsFound,
		"inputs_updated", stats.InputsUpdated,
	)
	return res, nil
}

func (p *Plugin) updateCurrentRange(ctx context.Context) (refresh.Stats, error) {
	cur, err := p.host.CurrentPageName(ctx)
	if err != nil {
		return refresh.Stats{}, fmt.Errorf("current page: %w", err)
	}
	if cur == "" {
		return refresh.Stats{}, nil
	}
	stats, err := p.engine.RefreshPage(ctx, cur, p.rangeOptions(p.settings()))
	if err != nil {
		return stats, fmt.Errorf("update range on %s: %w", cur, err)
	}
	p.logger.Info("range updated",
		"page", cur,
		"marked", stats.Marked,
		"inputs_found", stats.InputsFound,
		"inputs_updated", stats.InputsUpdated,
	)
	return stats, nil
}

func (p *Plugin) offsetsOptions(s config.Settings) refresh.Options {
	return refresh.Options{
		Marker:       s.OffsetsMarker(),
		Mode:         refresh.ModeOffsets,
		Offsets:      s.Offsets(),
		ExcludeToday: s.ExcludeToday,
		Now:          p.now(),
	}
}

func (p *Plugin) rangeOptions(s config.Settings) refresh.Options {
	return refresh.Options{
		Marker:       s.RangeMarker(),
		Mode:         refresh.ModeRange,
		DefaultRange: s.DefaultRange(),
		MaxRangeDays: s.MaxDays(),
		Now:          p.now(),
	}
}

// OffsetsBlock renders the offsets query block for the current settings.
func (p *Plugin) OffsetsBlock() (string, error) {
	s := p.settings()
	body, err := template.Load(p.root, s.OffsetsTemplate, s.TemplateDir, template.OffsetsQuery)
	if err != nil {
		return "", fmt.Errorf("load offsets template: %w", err)
	}
	return template.Apply(body, template.NewOffsetsVariables(s.Property(), s.OffsetsMarker())), nil
}

// RangeBlock renders the RANGE query block for the current settings.
func (p *Plugin) RangeBlock() (string, error) {
	s := p.settings()
	body, err := template.Load(p.root, s.RangeTemplate, s.TemplateDir, template.RangeQuery)
	if err != nil {
		return "", fmt.Errorf("load range template: %w", err)
	}
	return template.Apply(body, template.NewRangeVariables(s.Property(), s.RangeMarker(), s.DefaultRange())), nil
}

// InsertOffsetsQuery inserts an offsets query block at the cursor. When the
// current page is a template page the template pages are refreshed at once.
func (p *Plugin) InsertOffsetsQuery(ctx context.Context) (string, error) {
	block, err := p.OffsetsBlock()
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.host.InsertAtCursor(ctx, block); err != nil {
		return "", fmt.Errorf("insert offsets query: %w", err)
	}

	cur, err := p.host.CurrentPageName(ctx)
	if err != nil {
		return "", fmt.Errorf("current page: %w", err)
	}
	if cur != "" && p.MatchTemplatePage(cur) {
		res, err := p.updateTemplates(ctx)
		if err != nil {
			return "", err
		}
		return InsertedOffsetsMessage(res.Stats), nil
	}
	return InsertedOffsetsElsewhereMessage, nil
}

// InsertRangeQuery inserts a RANGE query block at the cursor and refreshes
// the current page.
func (p *Plugin) InsertRangeQuery(ctx context.Context) (string, error) {
	block, err := p.RangeBlock()
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.host.InsertAtCursor(ctx, block); err != nil {
		return "", fmt.Errorf("insert range query: %w", err)
	}
	stats, err := p.updateCurrentRange(ctx)
	if err != nil {
		return "", err
	}
	return InsertedRangeMessage(stats), nil
}
