package tui

import (
	"math"
	"strings"

	"github.com/teslashibe/go-sphere/pkg/expression"
)

// Cell is what one terminal character shows.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellHead
	CellEye
	CellPupil
	CellMouth
)

// Rune is the plain-text form of a cell, used when colour is unavailable.
func (c Cell) Rune() rune {
	switch c {
	case CellHead:
		return '#'
	case CellEye:
		return 'o'
	case CellPupil:
		return '@'
	case CellMouth:
		return '='
	default:
		return ' '
	}
}

// viewport maps figure pixels onto a character grid. Terminal cells are
// about twice as tall as they are wide, so one row spans 2*px pixels.
type viewport struct {
	cols, rows int
	px         float64
	offX, offY float64
}

func fit(size float64, cols, rows int) viewport {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	px := math.Max(size/float64(cols), size/float64(2*rows))
	return viewport{
		cols: cols,
		rows: rows,
		px:   px,
		offX: (float64(cols)*px - size) / 2,
		offY: (float64(rows)*2*px - size) / 2,
	}
}

// pixel returns the figure point at the centre of cell (col, row).
func (v viewport) pixel(col, row int) expression.Point {
	return expression.Pt(
		(float64(col)+0.5)*v.px-v.offX,
		(float64(row)+0.5)*2*v.px-v.offY,
	)
}

// cell returns the grid cell containing figure point p.
func (v viewport) cell(p expression.Point) (col, row int) {
	return int(math.Floor((p.X + v.offX) / v.px)), int(math.Floor((p.Y + v.offY) / (2 * v.px)))
}

// Rasterize draws a frame onto a cols x rows grid, scaled to fit and
// centred. A frame whose size differs from layout is drawn with a layout for
// its own size.
func Rasterize(layout expression.Layout, frame expression.Frame, cols, rows int) [][]Cell {
	if frame.Size > 0 && frame.Size != layout.Size {
		layout = expression.NewLayout(frame.Size)
	}
	v := fit(layout.Size, cols, rows)

	// Half the mouth height, but never thinner than one row so a closed
	// mouth still shows as a line.
	mouthRY := math.Max(frame.MouthHeight/2, 1.25*v.px)

	grid := make([][]Cell, v.rows)
	for r := range grid {
		grid[r] = make([]Cell, v.cols)
		for c := range grid[r] {
			grid[r][c] = classify(layout, frame, mouthRY, v.pixel(c, r))
		}
	}
	return grid
}

func classify(l expression.Layout, f expression.Frame, mouthRY float64, p expression.Point) Cell {
	switch {
	case p.Dist(f.LeftPupil) <= l.PupilRadius || p.Dist(f.RightPupil) <= l.PupilRadius:
		return CellPupil
	case p.Dist(l.LeftEye) <= l.EyeRadius || p.Dist(l.RightEye) <= l.EyeRadius:
		return CellEye
	case inEllipse(p, l.MouthCenter, l.MouthWidth, mouthRY):
		return CellMouth
	case p.Dist(l.HeadCenter) <= l.HeadRadius:
		return CellHead
	default:
		return CellEmpty
	}
}

func inEllipse(p, c expression.Point, rx, ry float64) bool {
	if rx <= 0 || ry <= 0 {
		return false
	}
	dx := (p.X - c.X) / rx
	dy := (p.Y - c.Y) / ry
	return dx*dx+dy*dy <= 1
}

// Text renders a grid as plain lines.
func Text(grid [][]Cell) string {
	var b strings.Builder
	for r, row := range grid {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			b.WriteRune(c.Rune())
		}
	}
	return b.String()
}
