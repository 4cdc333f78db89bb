package processors

import (
	"math"

	"github.com/san-kum/impel/internal/impel"
)

// OvershootInit tunes the overshoot model.
type OvershootInit struct {
	impel.VelocityInit

	// Acceleration is AccelPerDifference * |target - value|, toward target.
	AccelPerDifference float64

	// Acceleration is multiplied by this while moving away from the target.
	// Values above 1 make the oscillation die down.
	WrongDirectionMultiplier float64

	// Longest sub-step the integration takes. Larger frame deltas are split.
	MaxDeltaTime impel.Time
}

func (OvershootInit) Tag() impel.Tag { return impel.TagOvershoot }

func (i OvershootInit) Validate() error {
	if err := i.ValidateVelocity(impel.TagOvershoot); err != nil {
		return err
	}
	if !(i.AccelPerDifference >= 0) || math.IsInf(i.AccelPerDifference, 0) {
		return impel.InvalidField(impel.TagOvershoot, "accel_per_difference", i.AccelPerDifference, "must be finite and >= 0")
	}
	if !(i.WrongDirectionMultiplier >= 0) || math.IsInf(i.WrongDirectionMultiplier, 0) {
		return impel.InvalidField(impel.TagOvershoot, "wrong_direction_multiplier", i.WrongDirectionMultiplier, "must be finite and >= 0")
	}
	if i.MaxDeltaTime <= 0 {
		return impel.InvalidField(impel.TagOvershoot, "max_delta_time", float64(i.MaxDeltaTime), "must be > 0")
	}
	return nil
}

type OvershootData struct {
	impel.VelocityData
	Init OvershootInit
}

func (d *OvershootData) Initialize(init impel.Init) error {
	in, ok := init.(OvershootInit)
	if !ok {
		p, isPtr := init.(*OvershootInit)
		if !isPtr || p == nil {
			return impel.ErrModelMismatch
		}
		in = *p
	}
	d.Init = in
	d.Reset(&d.Init.VelocityInit)
	return nil
}

func (d *OvershootData) Tuning() *impel.VelocityInit { return &d.Init.VelocityInit }

// OvershootVelocity is the velocity after one sub-step of dt.
func OvershootVelocity(d *OvershootData, dt float64) float64 {
	diff := d.Difference(&d.Init.VelocityInit)
	mult := 1.0
	if d.Velocity*diff < 0 {
		mult = d.Init.WrongDirectionMultiplier
	}
	v := d.Velocity + diff*d.Init.AccelPerDifference*mult*dt
	return d.Init.ClampVelocity(v)
}

// Advance integrates d over dt: whole MaxDeltaTime steps first, the
// remainder last. Velocity is updated before value (semi-implicit Euler).
func (d *OvershootData) Advance(dt impel.Time) {
	if dt <= 0 {
		return
	}
	for remaining := dt; remaining > 0; {
		step := min(remaining, d.Init.MaxDeltaTime)
		d.Velocity = OvershootVelocity(d, float64(step))
		d.Integrate(&d.Init.VelocityInit, float64(step))
		remaining -= step
	}
	d.SettleIfReached(&d.Init.VelocityInit)
}

// OvershootProcessor drives overshoot instances.
type OvershootProcessor struct {
	impel.VelocityProcessor[OvershootData, *OvershootData]
}

func NewOvershootProcessor() *OvershootProcessor {
	return &OvershootProcessor{
		VelocityProcessor: impel.NewVelocityProcessor[OvershootData, *OvershootData](impel.TagOvershoot),
	}
}

func (p *OvershootProcessor) AdvanceFrame(dt impel.Time) {
	if dt <= 0 {
		return
	}
	for i, n := 0, p.Slots(); i < n; i++ {
		if d := p.ActiveAt(i); d != nil {
			d.Advance(dt)
		}
	}
}
