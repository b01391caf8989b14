// internal/store/memory.go
//
// In-memory implementation of Store.
// Used in tests and for throwaway runs (STORE_DRIVER=memory).
//
// Characteristics:
//   - Items keyed by id, solutions keyed by date.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Returns copies so callers never share mutable state with the store.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/robalobadob/pouch/internal/game"
)

// Memory is a map-based Store.
type Memory struct {
	mu        sync.RWMutex
	items     map[string]game.Item      // keyed by Item.ID
	solutions map[string]*game.Solution // keyed by Solution.Date
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{
		items:     make(map[string]game.Item),
		solutions: make(map[string]*game.Solution),
	}
}

func (m *Memory) ListItems(ctx context.Context) ([]game.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]game.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) FindItem(ctx context.Context, id string) (game.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if it, ok := m.items[id]; ok {
		return it, nil
	}
	return game.Item{}, ErrNotFound
}

func (m *Memory) SaveItems(ctx context.Context, items []game.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.items[it.ID] = it
	}
	return nil
}

func (m *Memory) FindSolution(ctx context.Context, date string) (*game.Solution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sol, ok := m.solutions[date]; ok {
		cp := *sol
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) SaveSolution(ctx context.Context, sol *game.Solution) (*game.Solution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.solutions[sol.Date]; ok {
		cp := *existing
		return &cp, nil
	}
	stored := *sol
	m.solutions[sol.Date] = &stored
	cp := stored
	return &cp, nil
}

func (m *Memory) UpdateCells(ctx context.Context, date string, cells game.Grid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sol, ok := m.solutions[date]
	if !ok {
		return ErrNotFound
	}
	sol.Cells = cells
	sol.CellsMissing = false
	return nil
}

func (m *Memory) ListSolutions(ctx context.Context) ([]*game.Solution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*game.Solution, 0, len(m.solutions))
	for _, sol := range m.solutions {
		cp := *sol
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// PutLegacy stores sol as-is, bypassing insert-or-fetch. Tests use it to plant
// records that predate the cells column.
func (m *Memory) PutLegacy(sol *game.Solution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *sol
	m.solutions[sol.Date] = &stored
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
