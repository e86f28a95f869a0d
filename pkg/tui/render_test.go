package tui

import (
	"strings"
	"testing"

	"github.com/teslashibe/go-sphere/pkg/expression"
)

func restingFrame(l expression.Layout) expression.Frame {
	return expression.NewFace(l.Size, expression.DefaultConfig()).Frame()
}

func count(grid [][]Cell, want Cell) int {
	n := 0
	for _, row := range grid {
		for _, c := range row {
			if c == want {
				n++
			}
		}
	}
	return n
}

func TestViewportRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		size       float64
		cols, rows int
	}{
		{"square", 100, 40, 20},
		{"wide", 100, 120, 20},
		{"tall", 200, 30, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := fit(tt.size, tt.cols, tt.rows)
			for _, cr := range [][2]int{{0, 0}, {tt.cols / 2, tt.rows / 2}, {tt.cols - 1, tt.rows - 1}} {
				c, r := v.cell(v.pixel(cr[0], cr[1]))
				if c != cr[0] || r != cr[1] {
					t.Errorf("cell(pixel(%d,%d)) = (%d,%d)", cr[0], cr[1], c, r)
				}
			}
			// The whole figure fits.
			c, r := v.cell(expression.Pt(tt.size/2, tt.size/2))
			if c < 0 || c >= tt.cols || r < 0 || r >= tt.rows {
				t.Errorf("centre cell (%d,%d) outside grid", c, r)
			}
		})
	}
}

func TestRasterizeFeatures(t *testing.T) {
	l := expression.NewLayout(100)
	f := restingFrame(l)
	grid := Rasterize(l, f, 40, 20)

	if len(grid) != 20 || len(grid[0]) != 40 {
		t.Fatalf("grid is %dx%d, want 40x20", len(grid[0]), len(grid))
	}

	v := fit(l.Size, 40, 20)
	tests := []struct {
		name string
		at   expression.Point
		want Cell
	}{
		{"left pupil", l.LeftEye, CellPupil},
		{"right pupil", l.RightEye, CellPupil},
		{"eye white", expression.Pt(l.LeftEye.X+8, l.LeftEye.Y), CellEye},
		{"cheek", expression.Pt(l.HeadCenter.X, l.HeadCenter.Y+8), CellHead},
		{"mouth", l.MouthCenter, CellMouth},
		{"corner", expression.Pt(1, 1), CellEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, r := v.cell(tt.at)
			if got := grid[r][c]; got != tt.want {
				t.Errorf("cell at %v = %c, want %c\n%s", tt.at, got.Rune(), tt.want.Rune(), Text(grid))
			}
		})
	}
}

func TestRasterizeMouthOpens(t *testing.T) {
	l := expression.NewLayout(100)
	face := expression.NewFace(100, expression.DefaultConfig())
	closed := count(Rasterize(l, face.Frame(), 80, 40), CellMouth)

	var open expression.Frame
	for i := 0; i < 30; i++ {
		open = face.Tick([]float64{1})
	}
	opened := count(Rasterize(l, open, 80, 40), CellMouth)

	if closed == 0 {
		t.Errorf("closed mouth draws no cells")
	}
	if opened <= closed {
		t.Errorf("open mouth cells = %d, closed = %d", opened, closed)
	}
}

func TestRasterizePupilsFollowPointer(t *testing.T) {
	l := expression.NewLayout(100)
	face := expression.NewFace(100, expression.DefaultConfig())
	v := fit(l.Size, 40, 20)

	before := Rasterize(l, face.Frame(), 40, 20)
	after := Rasterize(l, face.Look(expression.Pt(100, l.LeftEye.Y)), 40, 20)

	left := expression.Pt(l.LeftEye.X-1, l.LeftEye.Y)
	right := expression.Pt(l.LeftEye.X+9, l.LeftEye.Y)
	lc, lr := v.cell(left)
	rc, rr := v.cell(right)

	if before[lr][lc] != CellPupil || before[rr][rc] != CellEye {
		t.Errorf("before look: left=%c right=%c", before[lr][lc].Rune(), before[rr][rc].Rune())
	}
	if after[lr][lc] != CellEye || after[rr][rc] != CellPupil {
		t.Errorf("after look: left=%c right=%c", after[lr][lc].Rune(), after[rr][rc].Rune())
	}
}

func TestRasterizeUsesFrameSize(t *testing.T) {
	small := expression.NewLayout(100)
	big := expression.NewFace(200, expression.DefaultConfig()).Frame()

	got := Text(Rasterize(small, big, 40, 20))
	want := Text(Rasterize(expression.NewLayout(200), big, 40, 20))
	if got != want {
		t.Errorf("frame size ignored:\n%s\nwant\n%s", got, want)
	}
}

func TestText(t *testing.T) {
	grid := [][]Cell{
		{CellEmpty, CellHead, CellEye},
		{CellPupil, CellMouth, CellEmpty},
	}
	if got, want := Text(grid), " #o\n@= "; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
	if strings.Contains(Text(nil), "\n") {
		t.Errorf("empty grid rendered lines")
	}
}
