// internal/store/sqlite.go
//
// SQLite-backed Store (default driver).
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Item catalog and per-date solution persistence.
//
// Grids are stored as JSON arrays; solution_grids.cells may be NULL for
// records that predate coverage storage.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pouch/assets"
	"github.com/robalobadob/pouch/internal/game"
)

// SQLite implements Store on a database/sql handle.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database file at path and
// applies pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	migrations, err := assets.Migrations("sqlite")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db, migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// openDB ensures the parent directory exists, then opens with busy timeout and
// WAL journaling.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies *.sql files from fsys in lexical order, each inside its own
// transaction, skipping names already recorded in _migrations.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

/* ------------------------------- items ---------------------------------- */

func (s *SQLite) ListItems(ctx context.Context) ([]game.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, emoji, width, height FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []game.Item{}
	for rows.Next() {
		var it game.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Color, &it.Emoji, &it.Width, &it.Height); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLite) FindItem(ctx context.Context, id string) (game.Item, error) {
	var it game.Item
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, emoji, width, height FROM items WHERE id=?`, id,
	).Scan(&it.ID, &it.Name, &it.Color, &it.Emoji, &it.Width, &it.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Item{}, ErrNotFound
	}
	return it, err
}

func (s *SQLite) SaveItems(ctx context.Context, items []game.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range items {
		if _, err := tx.ExecContext(ctx, `
            INSERT OR REPLACE INTO items (id, name, color, emoji, width, height)
            VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, it.Name, it.Color, it.Emoji, it.Width, it.Height,
		); err != nil {
			return fmt.Errorf("save item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

/* ----------------------------- solutions -------------------------------- */

const solutionColumns = `id, date, main_cells, cells, created_at`

func (s *SQLite) FindSolution(ctx context.Context, date string) (*game.Solution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+solutionColumns+` FROM solution_grids WHERE date=?`, date)
	sol, err := scanSQLiteSolution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sol, err
}

// SaveSolution relies on UNIQUE(date): INSERT OR IGNORE keeps whichever grid
// landed first, and the read-back returns it.
func (s *SQLite) SaveSolution(ctx context.Context, sol *game.Solution) (*game.Solution, error) {
	rec, err := encodeSolution(sol)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO solution_grids (id, date, main_cells, cells, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Date, string(rec.MainCells), nullJSON(rec.Cells), rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("insert solution: %w", err)
	}
	return s.FindSolution(ctx, sol.Date)
}

func (s *SQLite) UpdateCells(ctx context.Context, date string, cells game.Grid) error {
	rec, err := encodeSolution(&game.Solution{Date: date, Cells: cells})
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE solution_grids SET cells=? WHERE date=?`, string(rec.Cells), date)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) ListSolutions(ctx context.Context) ([]*game.Solution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+solutionColumns+` FROM solution_grids ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Solution
	for rows.Next() {
		sol, err := scanSQLiteSolution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sol)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSolution(row rowScanner) (*game.Solution, error) {
	var (
		rec     solutionRecord
		main    string
		cells   sql.NullString
		created string
	)
	if err := row.Scan(&rec.ID, &rec.Date, &main, &cells, &created); err != nil {
		return nil, err
	}
	rec.MainCells = []byte(main)
	if cells.Valid {
		rec.Cells = []byte(cells.String)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("solution %s: created_at: %w", rec.Date, err)
	}
	rec.CreatedAt = t
	return rec.decode()
}

// nullJSON maps an absent JSON value to SQL NULL.
func nullJSON(raw []byte) sql.NullString {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }
