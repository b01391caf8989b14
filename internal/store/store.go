// internal/store/store.go
//
// Persistence interfaces for the item catalog and per-date solutions, plus
// a factory selecting the configured backend.
//
// Backends:
//   - memory:   process-local maps (tests, throwaway runs).
//   - sqlite:   default durable store (mattn/go-sqlite3).
//   - postgres: pgx pool, for shared deployments.
//   - redis:    JSON documents keyed by date.
//
// Every backend gives SaveSolution insert-or-fetch semantics on the date key so
// racing generators agree on one canonical grid.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalobadob/pouch/internal/config"
	"github.com/robalobadob/pouch/internal/game"
)

// ErrNotFound is returned when an item or solution does not exist.
var ErrNotFound = errors.New("not found")

// Catalog provides the items available for packing.
type Catalog interface {
	// ListItems returns every item, ordered by id.
	ListItems(ctx context.Context) ([]game.Item, error)

	// FindItem returns the item with id or ErrNotFound.
	FindItem(ctx context.Context, id string) (game.Item, error)

	// SaveItems inserts or replaces items.
	SaveItems(ctx context.Context, items []game.Item) error
}

// Solutions persists one solution per date.
type Solutions interface {
	// FindSolution returns the solution for date or ErrNotFound.
	FindSolution(ctx context.Context, date string) (*game.Solution, error)

	// SaveSolution inserts sol unless a solution for sol.Date already exists,
	// and returns whichever one is stored.
	SaveSolution(ctx context.Context, sol *game.Solution) (*game.Solution, error)

	// UpdateCells overwrites the coverage grid of an existing solution.
	UpdateCells(ctx context.Context, date string, cells game.Grid) error

	// ListSolutions returns all stored solutions ordered by date.
	ListSolutions(ctx context.Context) ([]*game.Solution, error)
}

// Store is a full backend.
type Store interface {
	Catalog
	Solutions

	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.Driver and applies its schema.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		return OpenPostgres(ctx, PostgresConfig{DSN: cfg.PostgresDSN, MaxConns: int32(cfg.MaxConns)})
	case config.DriverRedis:
		return OpenRedis(ctx, RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
