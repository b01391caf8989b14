package game

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"
)

func catalog() []Item {
	return []Item{
		{ID: "surv12", Width: 3, Height: 1},
		{ID: "grizzly", Width: 2, Height: 2},
		{ID: "bitcoin", Width: 1, Height: 1},
		{ID: "salewa", Width: 1, Height: 2},
		{ID: "docs", Width: 1, Height: 2},
		{ID: "m855A1", Width: 1, Height: 1},
		{ID: "gpu", Width: 2, Height: 1},
		{ID: "cms", Width: 2, Height: 1},
		{ID: "ibuprofen", Width: 1, Height: 1},
		{ID: "dogtag", Width: 1, Height: 1},
	}
}

func byID(items []Item) map[string]Item {
	m := make(map[string]Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}

func claim(id string, main bool) *SubmittedCell {
	return &SubmittedCell{ID: id, IsMainCell: &main}
}

func TestGenerateKeepsInvariants(t *testing.T) {
	items := catalog()
	for seed := uint64(0); seed < 200; seed++ {
		p := Generate(items, rand.New(rand.NewPCG(seed, seed^0x9e3779b9)))
		sol := &Solution{MainCells: p.MainCells, Cells: p.Cells}
		if err := Validate(sol, byID(items)); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if got := p.MainCells.Count() + len(p.Unplaced); got != len(items) {
			t.Fatalf("seed %d: placed+unplaced=%d, want %d", seed, got, len(items))
		}
		if derived := DeriveCells(p.MainCells, byID(items)); derived != p.Cells {
			t.Fatalf("seed %d: derived %v, generated %v", seed, derived, p.Cells)
		}
	}
}

func TestGenerateUnseededProducesValidPacking(t *testing.T) {
	items := catalog()
	p := Generate(items, nil)
	if err := Validate(&Solution{MainCells: p.MainCells, Cells: p.Cells}, byID(items)); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateDoesNotReorderInput(t *testing.T) {
	items := catalog()
	before := append([]Item(nil), items...)
	Generate(items, rand.New(rand.NewPCG(1, 2)))
	if !reflect.DeepEqual(items, before) {
		t.Fatal("Generate mutated its input")
	}
}

func TestSingletonsFillEveryCell(t *testing.T) {
	var items []Item
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		items = append(items, Item{ID: id, Width: 1, Height: 1})
	}
	p := Generate(items, rand.New(rand.NewPCG(7, 7)))
	if n := p.MainCells.Count(); n != 9 {
		t.Fatalf("placed %d items, want 9", n)
	}
	if len(p.Unplaced) != 1 {
		t.Fatalf("unplaced %v, want exactly one", p.Unplaced)
	}
	if p.Cells != p.MainCells {
		t.Fatalf("cells %v differ from anchors %v", p.Cells, p.MainCells)
	}
}

func TestPlaceFirstFitRowMajor(t *testing.T) {
	p := Place([]Item{
		{ID: "surv12", Width: 3, Height: 1},
		{ID: "grizzly", Width: 2, Height: 2},
		{ID: "bitcoin", Width: 1, Height: 1},
		{ID: "gpu", Width: 2, Height: 1},
		{ID: "dogtag", Width: 1, Height: 1},
	})
	wantMain := Grid{"surv12", "", "", "grizzly", "", "bitcoin", "", "", "dogtag"}
	wantCells := Grid{"surv12", "surv12", "surv12", "grizzly", "grizzly", "bitcoin", "grizzly", "grizzly", "dogtag"}
	if p.MainCells != wantMain {
		t.Errorf("main = %v, want %v", p.MainCells, wantMain)
	}
	if p.Cells != wantCells {
		t.Errorf("cells = %v, want %v", p.Cells, wantCells)
	}
	if !reflect.DeepEqual(p.Unplaced, []string{"gpu"}) {
		t.Errorf("unplaced = %v, want [gpu]", p.Unplaced)
	}
}

func TestPlaceSkipsOutOfRangeDimensions(t *testing.T) {
	p := Place([]Item{
		{ID: "flat", Width: 0, Height: 1},
		{ID: "wide", Width: 4, Height: 1},
		{ID: "neg", Width: 1, Height: -1},
		{ID: "ok", Width: 1, Height: 1},
	})
	if p.MainCells != (Grid{"ok"}) {
		t.Fatalf("main = %v", p.MainCells)
	}
	if !reflect.DeepEqual(p.Unplaced, []string{"flat", "wide", "neg"}) {
		t.Fatalf("unplaced = %v", p.Unplaced)
	}
}

func TestDeriveCells(t *testing.T) {
	items := byID([]Item{{ID: "shield", Width: 2, Height: 2}})

	cases := []struct {
		name string
		main Grid
		want Grid
	}{
		{
			name: "two by two at origin",
			main: Grid{"shield"},
			want: Grid{"shield", "shield", "", "shield", "shield"},
		},
		{
			name: "unknown id covers only its anchor",
			main: Grid{4: "ghost"},
			want: Grid{4: "ghost"},
		},
		{
			name: "targets past the last cell are skipped",
			main: Grid{8: "shield"},
			want: Grid{8: "shield"},
		},
		{
			name: "empty",
			main: Grid{},
			want: Grid{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveCells(tc.main, items); got != tc.want {
				t.Fatalf("DeriveCells = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateShield(t *testing.T) {
	sol := &Solution{
		MainCells: Grid{"shield"},
		Cells:     Grid{"shield", "shield", "", "shield", "shield"},
	}
	sub := make([]*SubmittedCell, Cells)
	sub[0] = claim("shield", true)
	sub[1] = claim("shield", false)

	res, err := Evaluate(sub, sol)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Correct {
		t.Fatal("expected fully correct")
	}
	want := []CorrectCell{{Index: 0, Row: 0, Col: 0, ItemID: "shield", CoveredIndices: []int{0, 1, 3, 4}}}
	if !reflect.DeepEqual(res.CorrectCells, want) {
		t.Fatalf("correct cells = %+v, want %+v", res.CorrectCells, want)
	}
}

func TestEvaluateRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 8, 10} {
		_, err := Evaluate(make([]*SubmittedCell, n), &Solution{})
		if !errors.Is(err, ErrInvalidSubmission) {
			t.Errorf("len %d: err = %v, want ErrInvalidSubmission", n, err)
		}
	}
}

func TestEvaluatePartialAndFull(t *testing.T) {
	p := Place([]Item{
		{ID: "surv12", Width: 3, Height: 1},
		{ID: "grizzly", Width: 2, Height: 2},
		{ID: "bitcoin", Width: 1, Height: 1},
	})
	sol := &Solution{MainCells: p.MainCells, Cells: p.Cells}

	full := make([]*SubmittedCell, Cells)
	full[0] = claim("surv12", true)
	full[3] = claim("grizzly", true)
	full[5] = claim("bitcoin", true)

	res, err := Evaluate(full, sol)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Correct || len(res.CorrectCells) != 3 {
		t.Fatalf("full guess: %+v", res)
	}
	for i, want := range []int{0, 3, 5} {
		if res.CorrectCells[i].Index != want {
			t.Fatalf("records out of order: %+v", res.CorrectCells)
		}
	}

	cases := map[string]*SubmittedCell{
		"wrong id":       claim("dogtag", true),
		"wrong position": nil,
	}
	for name, cell := range cases {
		t.Run(name, func(t *testing.T) {
			sub := append([]*SubmittedCell(nil), full...)
			sub[5] = cell
			if name == "wrong position" {
				sub[8] = claim("bitcoin", true)
			}
			res, err := Evaluate(sub, sol)
			if err != nil {
				t.Fatal(err)
			}
			if res.Correct {
				t.Fatal("expected not fully correct")
			}
			if len(res.CorrectCells) != 2 {
				t.Fatalf("got %d correct cells, want 2", len(res.CorrectCells))
			}
		})
	}
}

func TestEvaluateAnchorOnly(t *testing.T) {
	sol := &Solution{MainCells: Grid{"bitcoin"}, Cells: Grid{"bitcoin"}}

	cases := []struct {
		name string
		cell *SubmittedCell
	}{
		{"not main", claim("bitcoin", false)},
		{"main absent", &SubmittedCell{ID: "bitcoin"}},
		{"empty slot", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := make([]*SubmittedCell, Cells)
			sub[0] = tc.cell
			res, err := Evaluate(sub, sol)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.CorrectCells) != 0 || res.Correct {
				t.Fatalf("unexpected match: %+v", res)
			}
		})
	}
}

func TestEvaluateEmptySolution(t *testing.T) {
	// Nothing to find: zero matches equals zero items.
	res, err := Evaluate(make([]*SubmittedCell, Cells), &Solution{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Correct || res.CorrectCells == nil {
		t.Fatalf("got %+v", res)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	p := Place(catalog())
	sol := &Solution{MainCells: p.MainCells, Cells: p.Cells}
	sub := make([]*SubmittedCell, Cells)
	for i, id := range p.MainCells {
		if id != "" {
			sub[i] = claim(id, true)
		}
	}
	a, _ := Evaluate(sub, sol)
	b, _ := Evaluate(sub, sol)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ: %+v vs %+v", a, b)
	}
	if !a.Correct {
		t.Fatalf("claiming every anchor should be correct: %+v", a)
	}
}

func TestValidateCatchesOverlap(t *testing.T) {
	items := byID(catalog())
	sol := &Solution{
		MainCells: Grid{"grizzly", "gpu"},
		Cells:     Grid{"grizzly", "gpu", "gpu", "grizzly", "grizzly"},
	}
	if err := Validate(sol, items); err == nil {
		t.Fatal("expected overlap error")
	}
}

func TestGridJSON(t *testing.T) {
	b, err := json.Marshal(Grid{"a", 4: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `["a",null,null,null,"b",null,null,null,null]` {
		t.Fatalf("marshal = %s", b)
	}

	var g Grid
	if err := json.Unmarshal([]byte(`["a",null,null,null,null,null,null,null]`), &g); !errors.Is(err, ErrGridSize) {
		t.Fatalf("short grid: err = %v, want ErrGridSize", err)
	}
}
