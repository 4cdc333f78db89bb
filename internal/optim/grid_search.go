package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/impel/internal/sim"
)

var ErrEmptyGrid = errors.New("optim: empty grid")

// Objective scores a finished run; lower is better.
type Objective func(r *sim.Result) float64

type Candidate struct {
	Params map[string]float64
	Score  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Points enumerates the cartesian product of the ranges, the last parameter
// varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	if len(g.paramNames) == 0 || len(g.paramNames) != len(g.ranges) {
		return nil
	}
	var out []map[string]float64
	g.collect(0, make(map[string]float64, len(g.paramNames)), &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		g.collect(depth+1, current, out)
	}
}

// Search runs one simulator per grid point concurrently and returns every
// candidate sorted by score, best first. Runs that recorded errors score
// +Inf.
func (g *GridSearch) Search(
	ctx context.Context,
	cfg sim.Config,
	build func(params map[string]float64) (*sim.Simulator, error),
	score Objective,
) ([]Candidate, error) {
	points := g.Points()
	if len(points) == 0 {
		return nil, ErrEmptyGrid
	}

	results, err := sim.Sweep(ctx, len(points), cfg, func(i int) (*sim.Simulator, error) {
		s, err := build(points[i])
		if err != nil {
			return nil, fmt.Errorf("params %v: %w", points[i], err)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, len(points))
	for i, r := range results {
		s := math.Inf(1)
		if len(r.Errors) == 0 {
			s = score(r)
		}
		if math.IsNaN(s) {
			s = math.Inf(1)
		}
		candidates[i] = Candidate{Params: points[i], Score: s}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})
	return candidates, nil
}

// MetricScore reads one recorded metric of one track. A missing metric
// scores +Inf.
func MetricScore(track, metric string) Objective {
	return func(r *sim.Result) float64 {
		v, ok := r.Metrics[track][metric]
		if !ok {
			return math.Inf(1)
		}
		return v
	}
}

// Weighted sums objectives scaled by their weights.
func Weighted(weights []float64, objectives ...Objective) Objective {
	return func(r *sim.Result) float64 {
		total := 0.0
		for i, obj := range objectives {
			w := 1.0
			if i < len(weights) {
				w = weights[i]
			}
			total += w * obj(r)
		}
		return total
	}
}
