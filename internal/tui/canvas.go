package tui

import (
	"strings"

	"github.com/san-kum/psim/internal/sim"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const brailleBase = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a character grid where every cell holds 2x4 braille dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// Plot draws the particle centres seen along the z axis, scaled so the box
// fills the canvas.
func (c *Canvas) Plot(ps []*sim.Particle, box float64) {
	c.Clear()
	if box <= 0 {
		return
	}
	w, h := float64(c.Width*2), float64(c.Height*4)
	for _, p := range ps {
		x := int(p.Pos.X / box * w)
		y := int((1 - p.Pos.Y/box) * h)
		c.Set(x, y)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}
