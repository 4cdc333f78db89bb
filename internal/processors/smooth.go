package processors

import (
	"math"

	"github.com/san-kum/impel/internal/impel"
)

// SmoothInit tunes the smooth model. SmoothTime is roughly the time it
// takes to cover most of the distance to the target.
type SmoothInit struct {
	impel.VelocityInit
	SmoothTime float64
}

func (SmoothInit) Tag() impel.Tag { return impel.TagSmooth }

func (i SmoothInit) Validate() error {
	if err := i.ValidateVelocity(impel.TagSmooth); err != nil {
		return err
	}
	if !(i.SmoothTime > 0) || math.IsInf(i.SmoothTime, 0) {
		return impel.InvalidField(impel.TagSmooth, "smooth_time", i.SmoothTime, "must be finite and > 0")
	}
	return nil
}

type SmoothData struct {
	impel.VelocityData
	Init SmoothInit
}

func (d *SmoothData) Initialize(init impel.Init) error {
	in, ok := init.(SmoothInit)
	if !ok {
		p, isPtr := init.(*SmoothInit)
		if !isPtr || p == nil {
			return impel.ErrModelMismatch
		}
		in = *p
	}
	d.Init = in
	d.Reset(&d.Init.VelocityInit)
	return nil
}

func (d *SmoothData) Tuning() *impel.VelocityInit { return &d.Init.VelocityInit }

// Advance applies the critically damped smoothing step. The exponential
// decay uses a cubic approximation which stays stable for any dt, and the
// value is stopped at the target rather than carried past it.
func (d *SmoothData) Advance(dt impel.Time) {
	if dt <= 0 {
		return
	}
	t := float64(dt)
	omega := 2 / d.Init.SmoothTime
	x := omega * t
	decay := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)

	// change is measured from the target, taking the short way around a
	// modular range.
	change := -d.Difference(&d.Init.VelocityInit)
	temp := (d.Velocity + omega*change) * t
	d.Velocity = d.Init.ClampVelocity((d.Velocity - omega*temp) * decay)

	step := (change+temp)*decay - change
	if change != 0 && (change+step)*change < 0 {
		// never pass the target
		step = -change
		d.Velocity = 0
	}
	next := d.Value + d.Init.ClampDelta(step)
	bounded := d.Init.Range.Normalize(next)
	if !d.Init.Range.Modular && bounded != next {
		d.Velocity = 0
	}
	d.Value = bounded
	d.SettleIfReached(&d.Init.VelocityInit)
}

// SmoothProcessor drives smooth instances.
type SmoothProcessor struct {
	impel.VelocityProcessor[SmoothData, *SmoothData]
}

func NewSmoothProcessor() *SmoothProcessor {
	return &SmoothProcessor{
		VelocityProcessor: impel.NewVelocityProcessor[SmoothData, *SmoothData](impel.TagSmooth),
	}
}

func (p *SmoothProcessor) AdvanceFrame(dt impel.Time) {
	if dt <= 0 {
		return
	}
	for i, n := 0, p.Slots(); i < n; i++ {
		if d := p.ActiveAt(i); d != nil {
			d.Advance(dt)
		}
	}
}
