// Package blockdb is an outliner host backed by a SQLite block store.
//
// Pages own ordered block trees; block ids are random UUIDs assigned on import
// or insert and stay stable across text edits.
package blockdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/aidanlsb/ebbinghaus/internal/outline"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
	"github.com/aidanlsb/ebbinghaus/internal/refresh"
	"github.com/aidanlsb/ebbinghaus/internal/sqlutil"
)

var (
	// ErrPageNotFound is returned when no page has the requested name.
	ErrPageNotFound = refresh.ErrPageNotFound
	// ErrBlockNotFound is returned when a block id is unknown.
	ErrBlockNotFound = errors.New("block not found")
	// ErrNoCurrentPage is returned by InsertAtCursor when no page is open.
	ErrNoCurrentPage = errors.New("no current page")
)

// CurrentDBVersion is the current database schema version.
const CurrentDBVersion = 1

const currentPageKey = "current_page"

// DB is the SQLite block store handle.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	mu              sync.Mutex
	routeHandlers   []func()
	contentHandlers []func()
}

// Open opens or creates the store at path. ":memory:" opens a private
// in-memory store.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: in-memory stores are per connection, and data_version
	// only reports commits made by other connections.
	db.SetMaxOpenConns(1)

	if logger == nil {
		logger = slog.Default()
	}
	d := &DB{db: db, logger: logger.With("component", "blockdb"), now: time.Now}
	if err := d.initialize(path != ":memory:"); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initialize(wal bool) error {
	if wal {
		if _, err := d.db.Exec(`PRAGMA journal_mode = WAL; PRAGMA synchronous = NORMAL;`); err != nil {
			return fmt.Errorf("failed to configure database: %w", err)
		}
	}

	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS blocks (
			id TEXT PRIMARY KEY,
			page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
			parent_id TEXT,                 -- NULL for top-level blocks
			position INTEGER NOT NULL,      -- order among siblings
			content TEXT NOT NULL,
			updated_at INTEGER NOT NULL     -- unix millis of the last text change
		);

		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_blocks_page ON blocks(page_id, parent_id, position);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT INTO meta (key, value) VALUES ('db_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprint(CurrentDBVersion))
	return err
}

// PageSummary describes a stored page.
type PageSummary struct {
	Name      string    `json:"name"`
	Blocks    int       `json:"blocks"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListPages returns every page ordered by name.
func (d *DB) ListPages(ctx context.Context) ([]PageSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT p.name, COUNT(b.id), COALESCE(MAX(b.updated_at), p.created_at)
		FROM pages p LEFT JOIN blocks b ON b.page_id = p.id
		GROUP BY p.id
		ORDER BY p.name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (PageSummary, error) {
		var s PageSummary
		var updated int64
		if err := rows.Scan(&s.Name, &s.Blocks, &updated); err != nil {
			return s, err
		}
		s.UpdatedAt = time.UnixMilli(updated)
		return s, nil
	})
}

// ImportPage replaces the page's blocks with forest, creating the page if
// needed. Incoming ids are ignored; every block gets a fresh UUID.
func (d *DB) ImportPage(ctx context.Context, name string, forest []outline.Block) (int, error) {
	name = paths.NormalizePageName(name)
	if name == "" {
		return 0, fmt.Errorf("page name is required")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	pageID, err := ensurePage(ctx, tx, name, d.now())
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE page_id = ?`, pageID); err != nil {
		return 0, fmt.Errorf("clear page %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO blocks (id, page_id, parent_id, position, content, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	stamp := d.now().UnixMilli()
	count := 0
	var insert func(blocks []outline.Block, parent sql.NullString) error
	insert = func(blocks []outline.Block, parent sql.NullString) error {
		for i, b := range blocks {
			id := uuid.NewString()
			if _, err := stmt.ExecContext(ctx, id, pageID, parent, i, b.Text, stamp); err != nil {
				return fmt.Errorf("insert block: %w", err)
			}
			count++
			if err := insert(b.Children, sql.NullString{String: id, Valid: true}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(forest, sql.NullString{}); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	d.logger.Debug("page imported", "page", name, "blocks", count)
	return count, nil
}

// PrunePages deletes every page whose name is not in keep.
func (d *DB) PrunePages(ctx context.Context, keep []string) (int64, error) {
	if len(keep) == 0 {
		res, err := d.db.ExecContext(ctx, `DELETE FROM pages`)
		if err != nil {
			return 0, err
		}
		return sqlutil.RowsAffected(res), nil
	}
	placeholders, args := sqlutil.InClauseArgs(keep)
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM pages WHERE name NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("prune pages: %w", err)
	}
	return sqlutil.RowsAffected(res), nil
}

func ensurePage(ctx context.Context, tx *sql.Tx, name string, now time.Time) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pages (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, now.UnixMilli()); err != nil {
		return 0, fmt.Errorf("create page %s: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM pages WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup page %s: %w", name, err)
	}
	return id, nil
}
