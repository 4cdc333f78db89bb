package analysis

import (
	"strings"

	"github.com/san-kum/impel/internal/sim"
)

type Point struct {
	X, Y float64
}

// PhasePortrait maps each sample to (value-target, velocity). Retargets
// show up as jumps along X.
func PhasePortrait(samples []sim.Sample) []Point {
	pts := make([]Point, len(samples))
	for i, s := range samples {
		pts[i] = Point{X: -s.Difference(), Y: s.Velocity}
	}
	return pts
}

// Bounds returns the bounding box of pts padded by 10% on each side.
func Bounds(pts []Point) (minX, maxX, minY, maxY float64) {
	if len(pts) == 0 {
		return 0, 1, 0, 1
	}
	minX, maxX = pts[0].X, pts[0].X
	minY, maxY = pts[0].Y, pts[0].Y
	for _, p := range pts {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.1, maxX + rangeX*0.1, minY - rangeY*0.1, maxY + rangeY*0.1
}

// PortraitToASCII plots pts on a width x height character grid with the
// axes drawn where they cross the visible area.
func PortraitToASCII(pts []Point, width, height int) string {
	if len(pts) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := Bounds(pts)
	rangeX := maxX - minX
	rangeY := maxY - minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range grid {
			grid[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := range grid[r] {
			if grid[r][c] == '│' {
				grid[r][c] = '┼'
			} else {
				grid[r][c] = '─'
			}
		}
	}

	for _, p := range pts {
		r, c := row(p.Y), col(p.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			grid[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}
