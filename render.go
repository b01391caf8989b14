package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/pouch/internal/game"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cMuted   = lipgloss.Color("244") // gray
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Muted = lipgloss.NewStyle().Foreground(cMuted)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Width(cellWidth).Height(1).Align(lipgloss.Center)
)

const cellWidth = 12

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// renderSolution draws the 3×3 grid. Anchors show the item name, covered
// cells a dot, empty slots stay blank. Cells take the item colour.
func renderSolution(sol *game.Solution, catalog map[string]game.Item) string {
	rows := make([]string, 0, game.Size)
	for r := 0; r < game.Size; r++ {
		cols := make([]string, 0, game.Size)
		for c := 0; c < game.Size; c++ {
			cols = append(cols, renderCell(sol, catalog, game.Index(r, c)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}

	var b strings.Builder
	b.WriteString(Title.Render("Solution "+sol.Date) + "\n")
	b.WriteString(Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)) + "\n")
	b.WriteString(LabelValue("Anchors", sol.MainCells.Count()))
	if sol.ID != "" {
		b.WriteString("  " + Muted.Render(sol.ID))
	}
	return b.String()
}

func renderCell(sol *game.Solution, catalog map[string]game.Item, i int) string {
	style := cellStyle
	anchor, covered := sol.MainCells[i], sol.Cells[i]
	id := anchor
	if id == "" {
		id = covered
	}
	if id == "" {
		return style.Render(Muted.Render("·"))
	}

	it, known := catalog[id]
	if known && it.Color != "" {
		style = style.Background(lipgloss.Color(it.Color))
	}
	if anchor == "" {
		return style.Render("░")
	}
	label := id
	if known && it.Name != "" {
		label = it.Name
	}
	return style.Bold(true).Render(truncate(label, cellWidth-2))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
