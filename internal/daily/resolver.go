// internal/daily/resolver.go
//
// Per-date solution resolution.
//   - Reuse the stored solution for a date, re-deriving its coverage grid when a
//     legacy record has none.
//   - Otherwise generate a packing from the full catalog and persist it.
//
// Concurrent first requests for one date are collapsed in-process with
// singleflight; across processes the store's insert-or-fetch decides which
// generated grid becomes canonical.

package daily

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/pouch/internal/game"
	"github.com/robalobadob/pouch/internal/store"
)

// Resolver finds or creates the solution for a date.
type Resolver struct {
	catalog   store.Catalog
	solutions store.Solutions
	salt      string // empty: unseeded shuffles
	group     singleflight.Group
	now       func() time.Time
}

// NewResolver wires a resolver. With a non-empty salt, the shuffle for a date is
// seeded from HMAC(salt, date) so a lost solution can be regenerated identically.
func NewResolver(catalog store.Catalog, solutions store.Solutions, salt string) *Resolver {
	return &Resolver{catalog: catalog, solutions: solutions, salt: salt, now: time.Now}
}

// resolveTimeout bounds the shared work once it is detached from the caller.
const resolveTimeout = 30 * time.Second

// Resolve returns the solution for date, generating and persisting one if needed.
//
// Callers for the same date share one resolution. It runs detached from any
// single caller's cancellation; each caller still returns as soon as its own
// ctx is done.
func (r *Resolver) Resolve(ctx context.Context, date string) (*game.Solution, error) {
	ch := r.group.DoChan(date, func() (any, error) {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
		defer cancel()
		return r.resolve(workCtx, date)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*game.Solution), nil
	}
}

func (r *Resolver) resolve(ctx context.Context, date string) (*game.Solution, error) {
	sol, err := r.solutions.FindSolution(ctx, date)
	switch {
	case err == nil:
		if sol.CellsMissing {
			if err := r.backfill(ctx, sol); err != nil {
				return nil, err
			}
		}
		log.Debug().Str("date", date).Msg("reusing solution")
		return sol, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("find solution %s: %w", date, err)
	}

	items, err := r.catalog.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	p := game.Generate(items, r.rng(date))
	sol = &game.Solution{
		ID:        uuid.NewString(),
		Date:      date,
		MainCells: p.MainCells,
		Cells:     p.Cells,
		CreatedAt: r.now().UTC(),
	}
	saved, err := r.solutions.SaveSolution(ctx, sol)
	if err != nil {
		return nil, fmt.Errorf("save solution %s: %w", date, err)
	}
	if saved.ID != sol.ID {
		log.Info().Str("date", date).Msg("solution already created elsewhere, using stored one")
		return saved, nil
	}
	log.Info().
		Str("date", date).
		Int("placed", p.MainCells.Count()).
		Strs("unplaced", p.Unplaced).
		Msg("generated solution")
	return saved, nil
}

func (r *Resolver) rng(date string) *rand.Rand {
	if r.salt == "" {
		return nil
	}
	return rand.New(rand.NewPCG(Seed(date, r.salt)))
}

// backfill re-derives and persists sol.Cells from its anchors.
func (r *Resolver) backfill(ctx context.Context, sol *game.Solution) error {
	items := make(map[string]game.Item)
	for _, id := range sol.MainCells {
		if id == "" {
			continue
		}
		if _, seen := items[id]; seen {
			continue
		}
		it, err := r.catalog.FindItem(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Str("date", sol.Date).Str("item", id).Msg("backfill: unknown item, covering anchor only")
			continue
		}
		if err != nil {
			return fmt.Errorf("find item %s: %w", id, err)
		}
		items[id] = it
	}

	cells := game.DeriveCells(sol.MainCells, items)
	if err := r.solutions.UpdateCells(ctx, sol.Date, cells); err != nil {
		return fmt.Errorf("update cells %s: %w", sol.Date, err)
	}
	sol.Cells = cells
	sol.CellsMissing = false
	log.Warn().Str("date", sol.Date).Msg("backfilled legacy solution cells")
	return nil
}

// Backfill re-derives cells for every stored solution that lacks them and
// returns how many records were fixed.
func (r *Resolver) Backfill(ctx context.Context) (int, error) {
	all, err := r.solutions.ListSolutions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list solutions: %w", err)
	}
	fixed := 0
	for _, sol := range all {
		if !sol.CellsMissing {
			continue
		}
		if err := r.backfill(ctx, sol); err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}
