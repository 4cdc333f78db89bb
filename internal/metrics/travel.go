package metrics

import (
	"math"

	"github.com/san-kum/impel/internal/sim"
)

// Travel is the total path length, Σ|Δvalue|. For an ideal approach it
// equals the start distance; oscillation adds to it. Steps across the seam
// of a modular range count the short way.
type Travel struct {
	name    string
	sum     float64
	last    sim.Sample
	samples int
}

func NewTravel() *Travel {
	return &Travel{name: "travel"}
}

func (t *Travel) Name() string {
	return t.name
}

func (t *Travel) Observe(s sim.Sample) {
	if t.samples > 0 {
		t.sum += math.Abs(s.Delta(t.last))
	}
	t.last = s
	t.samples++
}

func (t *Travel) Value() float64 {
	return t.sum
}

func (t *Travel) Reset() {
	t.sum = 0
	t.last = sim.Sample{}
	t.samples = 0
}
