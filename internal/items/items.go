// internal/items/items.go
//
// Item catalog loading for the packing puzzle.
//
// Responsibilities:
//   - Load the item catalog from ITEMS_FILE (YAML) or fall back to the
//     embedded default catalog in assets/items.yaml.
//   - Validate every entry (unique non-empty id, dimensions in 1..3).
//   - Seed an empty store catalog so fresh deployments can generate puzzles.
//
// File format:
//
//	items:
//	  - id: grizzly
//	    name: Grizzly
//	    color: "#20160e"
//	    emoji: https://...
//	    width: 2
//	    height: 2

package items

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/pouch/assets"
	"github.com/robalobadob/pouch/internal/game"
	"github.com/robalobadob/pouch/internal/store"
)

type catalogFile struct {
	Items []game.Item `yaml:"items"`
}

var (
	defaultOnce  sync.Once
	defaultItems []game.Item
	defaultErr   error
)

// Default returns the embedded catalog, parsed once.
func Default() ([]game.Item, error) {
	defaultOnce.Do(func() {
		raw, err := assets.ItemsYAML()
		if err != nil {
			defaultErr = err
			return
		}
		defaultItems, defaultErr = Parse(raw)
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return append([]game.Item(nil), defaultItems...), nil
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) ([]game.Item, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) ([]game.Item, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("items: catalog is empty")
	}

	seen := make(map[string]bool, len(f.Items))
	for i, it := range f.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("items[%d]: id is required", i)
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("items[%d]: duplicate id %q", i, it.ID)
		}
		seen[it.ID] = true
		if it.Width < 1 || it.Width > game.Size || it.Height < 1 || it.Height > game.Size {
			return nil, fmt.Errorf("items[%d] %s: dimensions %dx%d outside 1..%d",
				i, it.ID, it.Width, it.Height, game.Size)
		}
	}
	return f.Items, nil
}

// Seed writes items into catalog only when it holds no items yet. It reports
// whether anything was written.
func Seed(ctx context.Context, catalog store.Catalog, items []game.Item) (bool, error) {
	existing, err := catalog.ListItems(ctx)
	if err != nil {
		return false, fmt.Errorf("list items: %w", err)
	}
	if len(existing) > 0 {
		log.Debug().Int("count", len(existing)).Msg("item catalog already populated")
		return false, nil
	}
	if err := catalog.SaveItems(ctx, items); err != nil {
		return false, fmt.Errorf("save items: %w", err)
	}
	log.Info().Int("count", len(items)).Msg("item catalog seeded")
	return true, nil
}
