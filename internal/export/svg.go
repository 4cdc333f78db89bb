package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/impel/internal/analysis"
	"github.com/san-kum/impel/internal/sim"
	"github.com/san-kum/impel/internal/viz"
)

const (
	background  = "#0a0a0a"
	valueColor  = "#00ffff"
	targetColor = "#ff00ff"
)

// Series is one polyline of an SVG chart.
type Series struct {
	Points []analysis.Point
	Stroke string
	Dashed bool
}

// ChartSVG draws every series into one width x height SVG, sharing the
// padded bounds of all points.
func ChartSVG(w io.Writer, width, height int, series ...Series) error {
	var all []analysis.Point
	for _, s := range series {
		all = append(all, s.Points...)
	}
	if len(all) < 2 {
		return fmt.Errorf("svg: need at least 2 points, got %d", len(all))
	}
	minX, maxX, minY, maxY := analysis.Bounds(all)
	rangeX := maxX - minX
	rangeY := maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		dash := ""
		if s.Dashed {
			dash = ` stroke-dasharray="4 3"`
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5"%s d="`, s.Stroke, dash)
		for i, p := range s.Points {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// TrackSVG charts a track's value over time with its target dashed.
func TrackSVG(w io.Writer, samples []sim.Sample, width, height int) error {
	value := make([]analysis.Point, len(samples))
	target := make([]analysis.Point, len(samples))
	for i, s := range samples {
		value[i] = analysis.Point{X: float64(s.Time), Y: s.Value}
		target[i] = analysis.Point{X: float64(s.Time), Y: s.Target}
	}
	return ChartSVG(w, width, height,
		Series{Points: target, Stroke: targetColor, Dashed: true},
		Series{Points: value, Stroke: valueColor},
	)
}

// PhaseSVG charts a track's phase portrait.
func PhaseSVG(w io.Writer, samples []sim.Sample, width, height int) error {
	return ChartSVG(w, width, height, Series{Points: analysis.PhasePortrait(samples), Stroke: valueColor})
}

// CanvasToSVG converts a Braille canvas to SVG, one circle per set dot.
func CanvasToSVG(w io.Writer, canvas *viz.Canvas, scale float64) error {
	if canvas == nil {
		return fmt.Errorf("svg: nil canvas")
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, valueColor)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
