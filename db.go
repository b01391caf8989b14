// db.go
//
// Store bootstrap shared by every command.
// Responsibilities:
//   - Open the configured backend (schema migrations run inside Open).
//   - Seed the item catalog from ITEMS_FILE or the embedded default when the
//     store has no items yet.

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pouch/internal/config"
	"github.com/robalobadob/pouch/internal/items"
	"github.com/robalobadob/pouch/internal/store"
)

// openStore opens the backend and makes sure it has a catalog to pack from.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("store ready")

	if _, err := seedCatalog(ctx, cfg, st); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// seedCatalog loads the configured catalog and writes it when the store is empty.
func seedCatalog(ctx context.Context, cfg *config.Config, catalog store.Catalog) (bool, error) {
	list, err := items.Load(cfg.Puzzle.ItemsFile)
	if err != nil {
		return false, fmt.Errorf("load item catalog: %w", err)
	}
	return items.Seed(ctx, catalog, list)
}
