// Package refresh finds marker-tagged query blocks on a page and rewrites their
// :inputs clause with freshly computed dates.
//
// A pass is a stateless transformation of one page snapshot into zero or more
// block text updates:
//
//  1. flatten the page tree
//  2. every block whose text carries the marker is "marked"
//  3. each marked block belongs to the group rooted at its parent (or itself
//     when it is root-level); repeated roots collapse into one group
//  4. each group resolves one date list (offsets from settings, or a RANGE)
//  5. every block in the group's subtree with an :inputs clause is patched
//
// Updates are only issued when the text actually changes, so repeated passes
// with unchanged inputs touch nothing.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidanlsb/ebbinghaus/internal/dates"
	"github.com/aidanlsb/ebbinghaus/internal/marker"
	"github.com/aidanlsb/ebbinghaus/internal/outline"
)

// ErrPageNotFound is returned by a Store when the page does not exist.
// RefreshPage treats it as an empty page.
var ErrPageNotFound = errors.New("page not found")

// Store is the slice of the host a pass needs: read a page tree, write one block.
type Store interface {
	PageBlockTree(ctx context.Context, page string) ([]outline.Block, error)
	UpdateBlockText(ctx context.Context, id, text string) error
}

// Stats are the observational counters of one pass.
type Stats struct {
	Scanned       int `json:"scanned"`
	Marked        int `json:"marked"`
	InputsFound   int `json:"inputs_found"`
	InputsUpdated int `json:"inputs_updated"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Scanned += other.Scanned
	s.Marked += other.Marked
	s.InputsFound += other.InputsFound
	s.InputsUpdated += other.InputsUpdated
}

// Options configure one pass. They are read fresh by the caller for every pass.
type Options struct {
	Marker string
	Mode   Mode

	// Offsets mode.
	Offsets      []int
	ExcludeToday bool

	// Range mode. DefaultRange is used by groups without a page-local sentinel.
	DefaultRange *marker.Sentinel
	MaxRangeDays int

	// Now anchors offset computation; zero means time.Now().
	Now time.Time
}

// Engine runs passes against a Store.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New creates an Engine. A nil logger falls back to slog.Default().
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// RefreshPage runs one pass over page.
//
// A missing page yields empty stats. Groups whose dates cannot be resolved are
// skipped silently. A failing host update stops the pass; the stats gathered so
// far are returned together with the error.
func (e *Engine) RefreshPage(ctx context.Context, page string, opts Options) (Stats, error) {
	var stats Stats

	tree, err := e.store.PageBlockTree(ctx, page)
	if err != nil {
		if errors.Is(err, ErrPageNotFound) {
			e.logger.Debug("page not found", slog.String("page", page))
			return stats, nil
		}
		return stats, fmt.Errorf("read page %q: %w", page, err)
	}
	if len(tree) == 0 {
		return stats, nil
	}

	idx := outline.Flatten(tree)
	roots := groupRoots(idx, opts.Marker, &stats)

	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	claimed := make(map[string]bool)
	for _, root := range roots {
		subtree := idx.Subtree(root)

		list, source, ok := resolveDates(idx, subtree, opts)
		if !ok {
			e.logger.Debug("group skipped",
				slog.String("page", page),
				slog.String("root", root),
				slog.String("mode", opts.Mode.String()),
				slog.String("reason", source),
			)
			continue
		}
		clause := marker.FormatInputs(list)

		e.logger.Debug("group resolved",
			slog.String("page", page),
			slog.String("root", root),
			slog.String("mode", opts.Mode.String()),
			slog.String("source", source),
			slog.Int("dates", len(list)),
			slog.Int("blocks", len(subtree)),
		)

		for _, id := range subtree {
			if claimed[id] {
				continue
			}
			claimed[id] = true

			block, _ := idx.Block(id)
			if !marker.HasInputsClause(block.Text) {
				continue
			}
			stats.InputsFound++

			updated, changed := marker.ReplaceInputs(block.Text, clause)
			if !changed {
				continue
			}
			if err := e.store.UpdateBlockText(ctx, id, updated); err != nil {
				return stats, fmt.Errorf("update block %s: %w", id, err)
			}
			stats.InputsUpdated++
		}
	}

	return stats, nil
}

// RefreshPages runs RefreshPage over every page and sums the stats.
func (e *Engine) RefreshPages(ctx context.Context, pages []string, opts Options) (Stats, error) {
	var total Stats
	for _, p := range pages {
		s, err := e.RefreshPage(ctx, p, opts)
		total.Add(s)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// groupRoots counts scanned/marked blocks and returns the distinct group roots
// in document order. The root is exactly one level up from the marked block.
func groupRoots(idx *outline.Index, mark string, stats *Stats) []string {
	var roots []string
	seen := make(map[string]bool)
	for _, b := range idx.Blocks() {
		stats.Scanned++
		if !marker.Contains(b.Text, mark) {
			continue
		}
		stats.Marked++

		root := b.ID
		if parent, ok := idx.Parent(b.ID); ok {
			root = parent
		}
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots
}

// resolveDates picks the date list for one group. The second return value
// names where the dates came from, or why the group was skipped.
func resolveDates(idx *outline.Index, subtree []string, opts Options) ([]string, string, bool) {
	switch opts.Mode {
	case ModeOffsets:
		list := dates.OffsetDates(opts.Offsets, opts.ExcludeToday, opts.Now)
		if len(list) == 0 {
			return nil, "no offsets", false
		}
		return list, "offsets", true

	case ModeRange:
		r, source := findRange(idx, subtree, opts.DefaultRange)
		if source == "" {
			return nil, "no range", false
		}
		list, err := dates.RangeDates(r.Start, r.End, opts.MaxRangeDays)
		if err != nil {
			return nil, err.Error(), false
		}
		return list, source, true
	}
	return nil, "unknown mode", false
}

// findRange returns the first sentinel in subtree order, else the default range.
func findRange(idx *outline.Index, subtree []string, def *marker.Sentinel) (marker.Sentinel, string) {
	for _, id := range subtree {
		b, _ := idx.Block(id)
		if r, ok := marker.ExtractRangeSentinel(b.Text); ok {
			return r, "sentinel"
		}
	}
	if def != nil && def.Start != "" && def.End != "" {
		return *def, "default"
	}
	return marker.Sentinel{}, ""
}
