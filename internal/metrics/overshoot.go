package metrics

import (
	"math"

	"github.com/san-kum/impel/internal/sim"
)

// Overshoot is the largest distance a track travels past its target,
// measured against the direction it approached from. A target change starts
// a new approach.
type Overshoot struct {
	name      string
	target    float64
	direction float64
	max       float64
	started   bool
}

func NewOvershoot() *Overshoot {
	return &Overshoot{name: "overshoot"}
}

func (o *Overshoot) Name() string {
	return o.name
}

func (o *Overshoot) Observe(s sim.Sample) {
	diff := s.Difference()
	if !o.started || s.Target != o.target {
		o.started = true
		o.target = s.Target
		o.direction = 0
	}
	if o.direction == 0 {
		o.direction = sign(diff)
		return
	}
	if past := -o.direction * diff; past > o.max {
		o.max = past
	}
}

func (o *Overshoot) Value() float64 {
	return o.max
}

func (o *Overshoot) Reset() {
	*o = Overshoot{name: o.name}
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// SettleTime is the time of the first sample after which the track stays
// within tolerance of its target. It is +Inf if the last sample is outside.
type SettleTime struct {
	name      string
	tolerance float64
	since     float64
	inside    bool
	samples   int
}

func NewSettleTime(tolerance float64) *SettleTime {
	return &SettleTime{name: "settle_time", tolerance: tolerance, since: math.Inf(1)}
}

func (m *SettleTime) Name() string {
	return m.name
}

func (m *SettleTime) Observe(s sim.Sample) {
	m.samples++
	if math.Abs(s.Difference()) <= m.tolerance && math.Abs(s.Velocity) <= m.tolerance {
		if !m.inside {
			m.inside = true
			m.since = float64(s.Time)
		}
		return
	}
	m.inside = false
	m.since = math.Inf(1)
}

func (m *SettleTime) Value() float64 {
	if m.samples == 0 {
		return math.Inf(1)
	}
	return m.since
}

func (m *SettleTime) Reset() {
	m.since = math.Inf(1)
	m.inside = false
	m.samples = 0
}
