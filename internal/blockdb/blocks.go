package blockdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aidanlsb/ebbinghaus/internal/outline"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
	"github.com/aidanlsb/ebbinghaus/internal/sqlutil"
)

type blockRow struct {
	id       string
	parentID sql.NullString
	content  string
}

// PageBlockTree returns the page's blocks as an outline forest.
func (d *DB) PageBlockTree(ctx context.Context, page string) ([]outline.Block, error) {
	name := paths.NormalizePageName(page)

	var pageID int64
	err := d.db.QueryRowContext(ctx, `SELECT id FROM pages WHERE name = ?`, name).Scan(&pageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup page %s: %w", name, err)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, parent_id, content FROM blocks
		WHERE page_id = ?
		ORDER BY position, rowid`, pageID)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	list, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (blockRow, error) {
		var r blockRow
		err := rows.Scan(&r.id, &r.parentID, &r.content)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}

	return buildForest(list), nil
}

// buildForest assembles rows (already in sibling order) into a tree. Rows
// whose parent is missing are promoted to the top level.
func buildForest(list []blockRow) []outline.Block {
	known := make(map[string]bool, len(list))
	for _, r := range list {
		known[r.id] = true
	}
	children := make(map[string][]blockRow)
	var roots []blockRow
	for _, r := range list {
		if r.parentID.Valid && known[r.parentID.String] {
			children[r.parentID.String] = append(children[r.parentID.String], r)
			continue
		}
		roots = append(roots, r)
	}

	var build func(rows []blockRow) []outline.Block
	build = func(rows []blockRow) []outline.Block {
		if len(rows) == 0 {
			return nil
		}
		out := make([]outline.Block, len(rows))
		for i, r := range rows {
			out[i] = outline.Block{ID: r.id, Text: r.content, Children: build(children[r.id])}
		}
		return out
	}
	return build(roots)
}

// UpdateBlockText replaces a block's text. updated_at only moves when the
// text actually differs.
func (d *DB) UpdateBlockText(ctx context.Context, id, text string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE blocks SET content = ?, updated_at = ? WHERE id = ? AND content <> ?`,
		text, d.now().UnixMilli(), id, text)
	if err != nil {
		return fmt.Errorf("update block %s: %w", id, err)
	}
	if sqlutil.RowsAffected(res) > 0 {
		return nil
	}

	var one int
	err = d.db.QueryRowContext(ctx, `SELECT 1 FROM blocks WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return err
}

// BlockUpdatedAt returns the last text change time of a block in unix millis.
func (d *DB) BlockUpdatedAt(ctx context.Context, id string) (int64, error) {
	var ts int64
	err := d.db.QueryRowContext(ctx, `SELECT updated_at FROM blocks WHERE id = ?`, id).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return ts, err
}

// InsertAtCursor appends text as a new top-level block on the current page,
// creating the page when needed.
func (d *DB) InsertAtCursor(ctx context.Context, text string) error {
	page, err := d.CurrentPageName(ctx)
	if err != nil {
		return err
	}
	if page == "" {
		return ErrNoCurrentPage
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	pageID, err := ensurePage(ctx, tx, page, d.now())
	if err != nil {
		return err
	}
	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM blocks WHERE page_id = ? AND parent_id IS NULL`,
		pageID).Scan(&next); err != nil {
		return fmt.Errorf("find insert position: %w", err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO blocks (id, page_id, parent_id, position, content, updated_at) VALUES (?, ?, NULL, ?, ?, ?)`,
		id, pageID, next, text, d.now().UnixMilli()); err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	d.logger.Debug("block inserted", "page", page, "id", id)
	return nil
}

// CurrentPageName returns the page recorded by SetCurrentPage, or "".
func (d *DB) CurrentPageName(ctx context.Context) (string, error) {
	var name string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, currentPageKey).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read current page: %w", err)
	}
	return name, nil
}

// SetCurrentPage records the open page.
func (d *DB) SetCurrentPage(ctx context.Context, name string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		currentPageKey, paths.NormalizePageName(name))
	if err != nil {
		return fmt.Errorf("set current page: %w", err)
	}
	return nil
}
