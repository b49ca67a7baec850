package graph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aidanlsb/ebbinghaus/internal/atomicfile"
	"github.com/aidanlsb/ebbinghaus/internal/outline"
	"github.com/aidanlsb/ebbinghaus/internal/parser"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
)

// Block ids are "<file without .md>#<path>", e.g. "pages/Templates#0.2.1".
// They are positional and stay valid while the page's structure is unchanged.

func blockID(file string, path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.TrimSuffix(file, ".md") + "#" + strings.Join(parts, ".")
}

func parseBlockID(id string) (string, []int, error) {
	i := strings.LastIndex(id, "#")
	if i <= 0 || i == len(id)-1 {
		return "", nil, fmt.Errorf("%w: malformed id %q", ErrBlockNotFound, id)
	}
	var path []int
	for _, s := range strings.Split(id[i+1:], ".") {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return "", nil, fmt.Errorf("%w: malformed id %q", ErrBlockNotFound, id)
		}
		path = append(path, n)
	}
	return id[:i] + ".md", path, nil
}

// PageBlockTree returns the page's blocks as an outline forest.
func (g *Graph) PageBlockTree(ctx context.Context, page string) ([]outline.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, content, err := g.ReadPage(page)
	if err != nil {
		return nil, err
	}
	return toBlocks(info.File, parser.ParseOutline(content).Roots), nil
}

func toBlocks(file string, nodes []*parser.Node) []outline.Block {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]outline.Block, len(nodes))
	for i, n := range nodes {
		out[i] = outline.Block{
			ID:       blockID(file, n.Path),
			Text:     n.Text,
			Children: toBlocks(file, n.Children),
		}
	}
	return out
}

// UpdateBlockText rewrites one block's lines in place. Other lines of the file,
// including the block's children, are preserved byte for byte.
func (g *Graph) UpdateBlockText(ctx context.Context, id, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, path, err := parseBlockID(id)
	if err != nil {
		return err
	}
	abs := g.abs(file)
	if err := paths.ValidateWithinGraph(g.root, abs); err != nil {
		return err
	}

	changed, err := atomicfile.Update(abs, func(old []byte) ([]byte, error) {
		page := parser.ParseOutline(string(old))
		node := page.Find(path)
		if node == nil {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
		}
		if node.Text == text {
			return nil, atomicfile.ErrUnchanged
		}
		return []byte(page.ReplaceBlock(node, text)), nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	if err != nil {
		return err
	}
	if changed {
		g.logger.Debug("block updated", "id", id)
	}
	return nil
}

// InsertAtCursor appends text as a new top-level block on the current page,
// creating the page file when it does not exist yet.
func (g *Graph) InsertAtCursor(ctx context.Context, text string) error {
	name, err := g.CurrentPageName(ctx)
	if err != nil {
		return err
	}
	if name == "" {
		return ErrNoCurrentPage
	}

	info, err := g.FindPage(name)
	if errors.Is(err, ErrPageNotFound) {
		path := filepath.Join(g.pagesDir, paths.PageNameToFileName(name))
		if err := paths.ValidateWithinGraph(g.root, path); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create pages directory: %w", err)
		}
		if err := atomicfile.WriteFile(path, []byte(parser.ParseOutline("").AppendRoot(text)), 0o644); err != nil {
			return fmt.Errorf("create page %s: %w", name, err)
		}
		g.logger.Info("page created", "page", name, "path", path)
		return nil
	}
	if err != nil {
		return err
	}

	_, err = atomicfile.Update(g.abs(info.File), func(old []byte) ([]byte, error) {
		return []byte(parser.ParseOutline(string(old)).AppendRoot(text)), nil
	})
	if err != nil {
		return fmt.Errorf("insert into %s: %w", info.Name, err)
	}
	g.logger.Debug("block inserted", "page", info.Name)
	return nil
}

// CreatePage creates an empty page file if no page matches name.
func (g *Graph) CreatePage(name string) (PageInfo, error) {
	if info, err := g.FindPage(name); err == nil {
		return info, nil
	} else if !errors.Is(err, ErrPageNotFound) {
		return PageInfo{}, err
	}
	name = paths.NormalizePageName(name)
	path := filepath.Join(g.pagesDir, paths.PageNameToFileName(name))
	if err := paths.ValidateWithinGraph(g.root, path); err != nil {
		return PageInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return PageInfo{}, fmt.Errorf("create pages directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, []byte("-\n"), 0o644); err != nil {
		return PageInfo{}, fmt.Errorf("create page %s: %w", name, err)
	}
	return g.pageInfo(path, false)
}
