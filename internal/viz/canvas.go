package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// Unicode offset 0x2800
const brailleBlank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Width x Height grid of braille cells, giving a pixel grid of
// (Width*2) x (Height*4).
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

// Set turns on the pixel at (x, y). Out-of-range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

// IsSet reports whether the pixel at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Trace draws values left to right as a connected line, mapping [lo, hi]
// onto the full pixel height. The newest values are kept when there are
// more values than pixel columns.
func (c *Canvas) Trace(values []float64, lo, hi float64) {
	cols := c.Width * 2
	rows := c.Height * 4
	if len(values) == 0 || cols == 0 || rows == 0 {
		return
	}
	if len(values) > cols {
		values = values[len(values)-cols:]
	}
	if hi <= lo {
		hi = lo + 1
	}

	py := func(v float64) int {
		if math.IsNaN(v) {
			v = lo
		}
		f := (v - lo) / (hi - lo)
		f = math.Max(0, math.Min(1, f))
		return rows - 1 - int(math.Round(f*float64(rows-1)))
	}

	prevX, prevY := 0, py(values[0])
	c.Set(prevX, prevY)
	for i := 1; i < len(values); i++ {
		y := py(values[i])
		c.DrawLine(prevX, prevY, i, y)
		prevX, prevY = i, y
	}
}

// HLine draws a dotted horizontal guide at v.
func (c *Canvas) HLine(v, lo, hi float64) {
	rows := c.Height * 4
	if hi <= lo || rows == 0 {
		return
	}
	f := math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
	y := rows - 1 - int(math.Round(f*float64(rows-1)))
	for x := 0; x < c.Width*2; x += 3 {
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

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
