package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pouch/assets"
	"github.com/robalobadob/pouch/internal/game"
)

// Postgres implements Store using a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MaxLifetime time.Duration
}

// OpenPostgres connects, pings and applies pending migrations.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	} else {
		poolConfig.MaxConns = 10
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrations, err := assets.Migrations("postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := runPostgresMigrations(ctx, pool, migrations); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// runPostgresMigrations executes pending .sql files, recording each in
// schema_migrations within the same transaction.
func runPostgresMigrations(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, name := range files {
		if done[name] {
			log.Debug().Str("migration", name).Msg("migration already applied")
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}
		log.Info().Str("migration", name).Msg("migration applied successfully")
	}
	return nil
}

func (p *Postgres) ListItems(ctx context.Context) ([]game.Item, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, color, emoji, width, height FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanPostgresItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan items: %w", err)
	}
	return items, nil
}

func (p *Postgres) FindItem(ctx context.Context, id string) (game.Item, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, color, emoji, width, height FROM items WHERE id = $1`, id)
	if err != nil {
		return game.Item{}, fmt.Errorf("failed to get item: %w", err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanPostgresItem)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Item{}, ErrNotFound
	}
	return it, err
}

func scanPostgresItem(row pgx.CollectableRow) (game.Item, error) {
	var it game.Item
	err := row.Scan(&it.ID, &it.Name, &it.Color, &it.Emoji, &it.Width, &it.Height)
	return it, err
}

func (p *Postgres) SaveItems(ctx context.Context, items []game.Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO items (id, name, color, emoji, width, height)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, color = EXCLUDED.color, emoji = EXCLUDED.emoji,
			    width = EXCLUDED.width, height = EXCLUDED.height`,
			it.ID, it.Name, it.Color, it.Emoji, it.Width, it.Height)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save items: %w", err)
	}
	return nil
}

func (p *Postgres) FindSolution(ctx context.Context, date string) (*game.Solution, error) {
	var (
		rec   solutionRecord
		cells []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, date, main_cells, cells, created_at
		FROM solution_grids
		WHERE date = $1`, date,
	).Scan(&rec.ID, &rec.Date, &rec.MainCells, &cells, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get solution: %w", err)
	}
	rec.Cells = cells
	return rec.decode()
}

// SaveSolution inserts with ON CONFLICT (date) DO NOTHING and reads back the
// stored row, so concurrent generators converge on the first insert.
func (p *Postgres) SaveSolution(ctx context.Context, sol *game.Solution) (*game.Solution, error) {
	rec, err := encodeSolution(sol)
	if err != nil {
		return nil, err
	}
	var cells *string
	if len(rec.Cells) > 0 {
		c := string(rec.Cells)
		cells = &c
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO solution_grids (id, date, main_cells, cells, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date) DO NOTHING`,
		rec.ID, rec.Date, string(rec.MainCells), cells, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create solution: %w", err)
	}
	return p.FindSolution(ctx, sol.Date)
}

func (p *Postgres) UpdateCells(ctx context.Context, date string, cells game.Grid) error {
	rec, err := encodeSolution(&game.Solution{Date: date, Cells: cells})
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE solution_grids SET cells = $2 WHERE date = $1`, date, string(rec.Cells))
	if err != nil {
		return fmt.Errorf("failed to update cells: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListSolutions(ctx context.Context) ([]*game.Solution, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, date, main_cells, cells, created_at
		FROM solution_grids
		ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	defer rows.Close()

	var out []*game.Solution
	for rows.Next() {
		var (
			rec   solutionRecord
			cells []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.MainCells, &cells, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		rec.Cells = cells
		sol, err := rec.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, sol)
	}
	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
