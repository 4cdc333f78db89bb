package metrics

import (
	"math"

	"github.com/san-kum/impel/internal/sim"
)

// OscillationPeaks returns the largest |target-value| of every completed
// half-cycle, a half-cycle ending where the difference changes sign. The
// trailing, unfinished half-cycle is dropped.
func OscillationPeaks(samples []sim.Sample) []float64 {
	var peaks []float64
	peak := 0.0
	prev := 0.0
	for _, s := range samples {
		d := s.Difference()
		if d*prev < 0 {
			peaks = append(peaks, peak)
			peak = 0
		}
		if d != 0 {
			prev = d
		}
		peak = math.Max(peak, math.Abs(d))
	}
	return peaks
}

// Decaying reports whether every peak above floor is smaller than the one
// before it.
func Decaying(peaks []float64, floor float64) bool {
	for i := 1; i < len(peaks) && peaks[i] > floor; i++ {
		if peaks[i] >= peaks[i-1] {
			return false
		}
	}
	return true
}

// Defaults is the metric set the CLI records for every track.
func Defaults(tolerance, bound float64) []sim.Metric {
	return []sim.Metric{
		NewOvershoot(),
		NewSettleTime(tolerance),
		NewTravel(),
		NewStability(bound),
	}
}
