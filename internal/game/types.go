// internal/game/types.go
//
// Core type definitions for the pouch puzzle.
// Defines:
//   - Item:     a catalog entry with a width×height footprint.
//   - Grid:     nine row-major slots holding item ids ("" = empty).
//   - Solution: the canonical packing for one date (anchors + coverage).
//   - SubmittedCell / CorrectCell / Result: guess evaluation payloads.

package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// Size is the side length of the puzzle grid.
	Size = 3
	// Cells is the number of slots in a Grid.
	Cells = Size * Size
)

var (
	// ErrGridSize is returned when a serialized grid does not hold exactly 9 slots.
	ErrGridSize = errors.New("grid must have exactly 9 cells")
	// ErrInvalidSubmission is returned by Evaluate for a malformed guess.
	ErrInvalidSubmission = errors.New("invalid submission")
)

// Item is an immutable catalog entry. Name, Color and Emoji are display-only.
type Item struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Color  string `json:"color" yaml:"color"`
	Emoji  string `json:"emoji" yaml:"emoji"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// Grid is a 3×3 board flattened row-major: index = row*3 + col.
// An empty string marks an empty slot.
type Grid [Cells]string

// Index returns the flat index of (row, col).
func Index(row, col int) int { return row*Size + col }

// Position returns the (row, col) of a flat index.
func Position(i int) (row, col int) { return i / Size, i % Size }

// Count returns the number of non-empty slots.
func (g Grid) Count() int {
	n := 0
	for _, id := range g {
		if id != "" {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the grid as an array of nine strings, null for empty slots.
func (g Grid) MarshalJSON() ([]byte, error) {
	out := make([]*string, Cells)
	for i := range g {
		if g[i] != "" {
			id := g[i]
			out[i] = &id
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an array of strings/nulls and rejects any length other than 9.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw []*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != Cells {
		return fmt.Errorf("%w: got %d", ErrGridSize, len(raw))
	}
	var out Grid
	for i, id := range raw {
		if id != nil {
			out[i] = *id
		}
	}
	*g = out
	return nil
}

// Solution is the canonical packing for a single date.
type Solution struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // "YYYY-MM-DD"
	MainCells Grid      `json:"mainCells"`
	Cells     Grid      `json:"cells"`
	CreatedAt time.Time `json:"createdAt"`

	// CellsMissing is set by stores when the persisted cells were absent or not
	// exactly nine long. Cells is zero in that case and must be re-derived.
	CellsMissing bool `json:"-"`
}

// SubmittedCell is one slot of a player's grid. IsMainCell must be explicitly
// true for the slot to count as an anchor claim.
type SubmittedCell struct {
	ID         string `json:"id"`
	IsMainCell *bool  `json:"isMainCell"`
}

// CorrectCell reports one item the player anchored exactly where the solution does.
type CorrectCell struct {
	Index          int    `json:"index"`
	Row            int    `json:"row"`
	Col            int    `json:"col"`
	ItemID         string `json:"itemId"`
	CoveredIndices []int  `json:"coveredIndices"`
}

// Result is the outcome of evaluating a submission.
type Result struct {
	Correct      bool          `json:"correct"`
	CorrectCells []CorrectCell `json:"correctCells"`
}
