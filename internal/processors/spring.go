package processors

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/san-kum/impel/internal/impel"
)

// SpringInit tunes the spring model. AngularFrequency is in radians per
// time unit; DampingRatio below 1 oscillates, 1 is critically damped, above
// 1 is over-damped.
type SpringInit struct {
	impel.VelocityInit
	AngularFrequency float64
	DampingRatio     float64
}

func (SpringInit) Tag() impel.Tag { return impel.TagSpring }

func (i SpringInit) Validate() error {
	if err := i.ValidateVelocity(impel.TagSpring); err != nil {
		return err
	}
	if !(i.AngularFrequency > 0) || math.IsInf(i.AngularFrequency, 0) {
		return impel.InvalidField(impel.TagSpring, "angular_frequency", i.AngularFrequency, "must be finite and > 0")
	}
	if !(i.DampingRatio >= 0) || math.IsInf(i.DampingRatio, 0) {
		return impel.InvalidField(impel.TagSpring, "damping_ratio", i.DampingRatio, "must be finite and >= 0")
	}
	return nil
}

type SpringData struct {
	impel.VelocityData
	Init SpringInit

	// coefficients for springDt; rebuilt when the frame delta changes
	spring   harmonica.Spring
	springDt impel.Time
}

func (d *SpringData) Initialize(init impel.Init) error {
	in, ok := init.(SpringInit)
	if !ok {
		p, isPtr := init.(*SpringInit)
		if !isPtr || p == nil {
			return impel.ErrModelMismatch
		}
		in = *p
	}
	d.Init = in
	d.springDt = 0
	d.Reset(&d.Init.VelocityInit)
	return nil
}

func (d *SpringData) Tuning() *impel.VelocityInit { return &d.Init.VelocityInit }

func (d *SpringData) Advance(dt impel.Time) {
	if dt <= 0 {
		return
	}
	if d.springDt != dt {
		d.spring = harmonica.NewSpring(float64(dt), d.Init.AngularFrequency, d.Init.DampingRatio)
		d.springDt = dt
	}

	// harmonica works on absolute positions; place the equilibrium relative
	// to Value so modular ranges take the short way.
	equilibrium := d.Value + d.Difference(&d.Init.VelocityInit)
	pos, vel := d.spring.Update(d.Value, d.Velocity, equilibrium)

	d.Velocity = d.Init.ClampVelocity(vel)
	next := d.Value + d.Init.ClampDelta(pos-d.Value)
	bounded := d.Init.Range.Normalize(next)
	if !d.Init.Range.Modular && bounded != next {
		d.Velocity = 0
	}
	d.Value = bounded
	d.SettleIfReached(&d.Init.VelocityInit)
}

// SpringProcessor drives spring instances.
type SpringProcessor struct {
	impel.VelocityProcessor[SpringData, *SpringData]
}

func NewSpringProcessor() *SpringProcessor {
	return &SpringProcessor{
		VelocityProcessor: impel.NewVelocityProcessor[SpringData, *SpringData](impel.TagSpring),
	}
}

func (p *SpringProcessor) AdvanceFrame(dt impel.Time) {
	if dt <= 0 {
		return
	}
	for i, n := 0, p.Slots(); i < n; i++ {
		if d := p.ActiveAt(i); d != nil {
			d.Advance(dt)
		}
	}
}
