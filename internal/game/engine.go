// internal/game/engine.go
//
// Core puzzle engine.
// Responsibilities:
//   - Pack a shuffled catalog into the 3×3 grid with first-fit placement.
//   - Re-derive the coverage grid from anchors for legacy solutions.
//   - Evaluate a player's anchor claims against a solution.
//
// Notes:
//   - Everything here is pure; persistence and dates live in the daily package.
//   - Packing is greedy and never backtracks, so a different order may fit
//     more items.

package game

import (
	"fmt"
	"math/rand/v2"
)

// Packing is the output of Generate.
type Packing struct {
	MainCells Grid
	Cells     Grid
	// Unplaced lists item ids that found no free footprint, in processing order.
	Unplaced []string
}

// Generate shuffles items with rng (the global source when rng is nil) and places
// each one at the first free anchor in row-major order. Items that do not fit are
// reported in Unplaced. The input slice is not modified.
func Generate(items []Item, rng *rand.Rand) Packing {
	order := make([]Item, len(items))
	copy(order, items)
	swap := func(i, j int) { order[i], order[j] = order[j], order[i] }
	if rng != nil {
		rng.Shuffle(len(order), swap)
	} else {
		rand.Shuffle(len(order), swap)
	}
	return Place(order)
}

// Place runs first-fit placement over items in the given order.
func Place(items []Item) Packing {
	var (
		p        Packing
		occupied [Cells]bool
	)
	for _, it := range items {
		row, col, ok := firstFit(&occupied, it.Width, it.Height)
		if !ok {
			p.Unplaced = append(p.Unplaced, it.ID)
			continue
		}
		for r := row; r < row+it.Height; r++ {
			for c := col; c < col+it.Width; c++ {
				occupied[Index(r, c)] = true
				p.Cells[Index(r, c)] = it.ID
			}
		}
		p.MainCells[Index(row, col)] = it.ID
	}
	return p
}

// firstFit returns the first anchor whose w×h footprint is entirely free.
// Dimensions outside 1..Size never fit.
func firstFit(occupied *[Cells]bool, w, h int) (row, col int, ok bool) {
	if w < 1 || h < 1 || w > Size || h > Size {
		return 0, 0, false
	}
	for row = 0; row <= Size-h; row++ {
		for col = 0; col <= Size-w; col++ {
			if footprintFree(occupied, row, col, w, h) {
				return row, col, true
			}
		}
	}
	return 0, 0, false
}

func footprintFree(occupied *[Cells]bool, row, col, w, h int) bool {
	for r := row; r < row+h; r++ {
		for c := col; c < col+w; c++ {
			if occupied[Index(r, c)] {
				return false
			}
		}
	}
	return true
}

// DeriveCells rebuilds the coverage grid from anchors. Ids missing from items are
// treated as 1×1. Targets outside the flat 0..8 range are skipped, and later anchors
// overwrite earlier coverage; main is trusted to come from Generate.
func DeriveCells(main Grid, items map[string]Item) Grid {
	var cells Grid
	for i, id := range main {
		if id == "" {
			continue
		}
		w, h := 1, 1
		if it, ok := items[id]; ok {
			w, h = max(1, it.Width), max(1, it.Height)
		}
		row, col := Position(i)
		for r := row; r < row+h; r++ {
			for c := col; c < col+w; c++ {
				if idx := Index(r, c); idx >= 0 && idx < Cells {
					cells[idx] = id
				}
			}
		}
	}
	return cells
}

// Evaluate compares the anchor claims in sub with sol. sub must hold exactly nine
// slots; nil slots and slots without an explicit IsMainCell=true are ignored.
//
// Correct reports whether the number of matched anchors equals the number of items
// in the solution. It compares counts, not sets.
func Evaluate(sub []*SubmittedCell, sol *Solution) (Result, error) {
	if len(sub) != Cells {
		return Result{}, fmt.Errorf("%w: grid has %d cells", ErrInvalidSubmission, len(sub))
	}
	if sol == nil {
		return Result{}, fmt.Errorf("%w: no solution", ErrInvalidSubmission)
	}

	res := Result{CorrectCells: []CorrectCell{}}
	for i, cell := range sub {
		if cell == nil || cell.IsMainCell == nil || !*cell.IsMainCell {
			continue
		}
		want := sol.MainCells[i]
		if want == "" || cell.ID != want {
			continue
		}
		covered := []int{}
		for j, id := range sol.Cells {
			if id == want {
				covered = append(covered, j)
			}
		}
		row, col := Position(i)
		res.CorrectCells = append(res.CorrectCells, CorrectCell{
			Index:          i,
			Row:            row,
			Col:            col,
			ItemID:         want,
			CoveredIndices: covered,
		})
	}
	res.Correct = len(res.CorrectCells) == sol.MainCells.Count()
	return res, nil
}

// Validate checks that every anchor's footprint lies inside the grid, is fully
// marked in Cells, and that Cells holds nothing beyond those footprints.
func Validate(sol *Solution, items map[string]Item) error {
	var owner Grid
	for i, id := range sol.MainCells {
		if id == "" {
			continue
		}
		it, ok := items[id]
		if !ok {
			return fmt.Errorf("anchor %d: unknown item %q", i, id)
		}
		row, col := Position(i)
		if row+it.Height > Size || col+it.Width > Size || it.Width < 1 || it.Height < 1 {
			return fmt.Errorf("anchor %d: %q (%dx%d) out of bounds", i, id, it.Width, it.Height)
		}
		for r := row; r < row+it.Height; r++ {
			for c := col; c < col+it.Width; c++ {
				idx := Index(r, c)
				if owner[idx] != "" {
					return fmt.Errorf("cell %d: %q overlaps %q", idx, id, owner[idx])
				}
				owner[idx] = id
			}
		}
	}
	if owner != sol.Cells {
		return fmt.Errorf("cells %v do not match footprints %v", sol.Cells, owner)
	}
	return nil
}
