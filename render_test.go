package main

import (
	"strings"
	"testing"

	"github.com/robalobadob/pouch/internal/game"
)

func TestRenderSolution(t *testing.T) {
	sol := &game.Solution{
		ID:        "sol-1",
		Date:      "2025-03-10",
		MainCells: game.Grid{"grizzly", "", "bitcoin", "", "", "", "ghost"},
		Cells:     game.Grid{"grizzly", "grizzly", "bitcoin", "grizzly", "grizzly", "", "ghost"},
	}
	catalog := map[string]game.Item{
		"grizzly": {ID: "grizzly", Name: "Grizzly", Color: "#20160e", Width: 2, Height: 2},
		"bitcoin": {ID: "bitcoin", Name: "0.2 BTC", Color: "#2b202d", Width: 1, Height: 1},
	}

	out := renderSolution(sol, catalog)
	for _, want := range []string{"Solution 2025-03-10", "Grizzly", "0.2 BTC", "ghost", "sol-1", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := len(strings.Split(out, "\n")); got < 6 {
		t.Errorf("expected a bordered 3-row grid, got %d lines:\n%s", got, out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Grizzly", 10, "Grizzly"},
		{"Ibuprofen 400", 10, "Ibuprofen…"},
		{"ab", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
