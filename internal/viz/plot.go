package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/impel/internal/sim"
)

type PlotOptions struct {
	Width    int
	Height   int
	Caption  string
	Velocity bool // plot velocity instead of value, without the target line
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 12}
}

// PlotTrack charts a track's value (or velocity) over its recorded frames,
// with the target as a second series.
func PlotTrack(name string, samples []sim.Sample, opts PlotOptions) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("track %s: no samples", name)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultPlotOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}

	values := make([]float64, len(samples))
	targets := make([]float64, len(samples))
	for i, s := range samples {
		if opts.Velocity {
			values[i] = s.Velocity
		} else {
			values[i] = s.Value
		}
		targets[i] = s.Target
	}

	caption := opts.Caption
	if caption == "" {
		what := "value"
		if opts.Velocity {
			what = "velocity"
		}
		caption = fmt.Sprintf("%s %s, t=%d..%d", name, what, samples[0].Time, samples[len(samples)-1].Time)
	}

	if opts.Velocity {
		return asciigraph.Plot(values,
			asciigraph.Height(opts.Height),
			asciigraph.Width(opts.Width),
			asciigraph.Caption(caption),
		), nil
	}

	return asciigraph.PlotMany([][]float64{values, targets},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta),
		asciigraph.SeriesLegends("value", "target"),
	), nil
}
