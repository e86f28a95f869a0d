package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colours of the original figure.
var (
	headColor  = lipgloss.Color("#FDD835")
	eyeColor   = lipgloss.Color("#FFFFFF")
	pupilColor = lipgloss.Color("#000000")
	mouthColor = lipgloss.Color("#000000")
	dimColor   = lipgloss.Color("#666666")
)

// Styles holds the lipgloss styles used by the renderer.
type Styles struct {
	Cells  map[Cell]lipgloss.Style
	Status lipgloss.Style
	Title  lipgloss.Style
	Help   lipgloss.Style
}

// DefaultStyles paints cells as background blocks.
func DefaultStyles() Styles {
	block := lipgloss.NewStyle()
	return Styles{
		Cells: map[Cell]lipgloss.Style{
			CellEmpty: block,
			CellHead:  block.Background(headColor),
			CellEye:   block.Background(eyeColor),
			CellPupil: block.Background(pupilColor),
			CellMouth: block.Background(mouthColor),
		},
		Status: lipgloss.NewStyle().Foreground(headColor),
		Title:  lipgloss.NewStyle().Bold(true),
		Help:   lipgloss.NewStyle().Foreground(dimColor),
	}
}

// paint renders one grid row, styling runs of equal cells together.
func (s Styles) paint(row []Cell) string {
	var b strings.Builder
	for i := 0; i < len(row); {
		j := i
		for j < len(row) && row[j] == row[i] {
			j++
		}
		b.WriteString(s.Cells[row[i]].Render(strings.Repeat(" ", j-i)))
		i = j
	}
	return b.String()
}
