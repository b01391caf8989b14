package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robalobadob/pouch/internal/game"
)

// solutionRecord is the persisted shape shared by the SQL and Redis backends.
// Cells is a raw message so absent or malformed legacy values survive decoding.
type solutionRecord struct {
	ID        string          `json:"id"`
	Date      string          `json:"date"`
	MainCells json.RawMessage `json:"mainCells"`
	Cells     json.RawMessage `json:"cells,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func encodeSolution(sol *game.Solution) (solutionRecord, error) {
	main, err := json.Marshal(sol.MainCells)
	if err != nil {
		return solutionRecord{}, fmt.Errorf("encode main cells: %w", err)
	}
	rec := solutionRecord{ID: sol.ID, Date: sol.Date, MainCells: main, CreatedAt: sol.CreatedAt}
	if !sol.CellsMissing {
		cells, err := json.Marshal(sol.Cells)
		if err != nil {
			return solutionRecord{}, fmt.Errorf("encode cells: %w", err)
		}
		rec.Cells = cells
	}
	return rec, nil
}

// decode turns a record into a Solution. A null main grid decodes as empty;
// any other main grid that is not nine long is an error. Cells that are
// absent, null, or not nine long set CellsMissing instead.
func (rec solutionRecord) decode() (*game.Solution, error) {
	sol := &game.Solution{ID: rec.ID, Date: rec.Date, CreatedAt: rec.CreatedAt}
	if !isNull(rec.MainCells) {
		if err := json.Unmarshal(rec.MainCells, &sol.MainCells); err != nil {
			return nil, fmt.Errorf("solution %s: main cells: %w", rec.Date, err)
		}
	}
	if isNull(rec.Cells) || json.Unmarshal(rec.Cells, &sol.Cells) != nil {
		sol.Cells = game.Grid{}
		sol.CellsMissing = true
	}
	return sol, nil
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
