package impel

import "math"

// Range bounds a value. The zero Range is unbounded. A modular range wraps
// values into [Min, Max) and measures differences the short way around,
// which is what angles need.
type Range struct {
	Min     float64
	Max     float64
	Modular bool
}

// Bounded reports whether the range constrains values at all.
func (r Range) Bounded() bool {
	return r.Max > r.Min
}

// Width is Max-Min, or +Inf for an unbounded range.
func (r Range) Width() float64 {
	if !r.Bounded() {
		return math.Inf(1)
	}
	return r.Max - r.Min
}

// Normalize wraps x into a modular range or clamps it into a bounded one.
func (r Range) Normalize(x float64) float64 {
	if !r.Bounded() {
		return x
	}
	if r.Modular {
		w := r.Max - r.Min
		x = math.Mod(x-r.Min, w)
		if x < 0 {
			x += w
		}
		return x + r.Min
	}
	return math.Max(r.Min, math.Min(r.Max, x))
}

// Difference returns target-value. For modular ranges the result lies in
// [-Width/2, Width/2).
func (r Range) Difference(target, value float64) float64 {
	d := target - value
	if !r.Modular || !r.Bounded() {
		return d
	}
	w := r.Max - r.Min
	d = math.Mod(d, w)
	if d >= w/2 {
		d -= w
	} else if d < -w/2 {
		d += w
	}
	return d
}

func (r Range) validate(tag Tag) error {
	if !isFinite(r.Min) {
		return InvalidField(tag, "min", r.Min, "must be finite")
	}
	if !isFinite(r.Max) {
		return InvalidField(tag, "max", r.Max, "must be finite")
	}
	if r.Min > r.Max || (r.Min == r.Max && r.Min != 0) {
		return InvalidField(tag, "max", r.Max, "must exceed min")
	}
	if r.Modular && !r.Bounded() {
		return InvalidField(tag, "max", r.Max, "modular range needs bounds")
	}
	return nil
}

// Settle snaps an instance onto its target once it is close and slow
// enough. A zero threshold places no constraint on its quantity; the zero
// Settle never snaps.
type Settle struct {
	MaxDifference float64
	MaxVelocity   float64
}

// Enabled reports whether any threshold is set.
func (s Settle) Enabled() bool {
	return s.MaxDifference > 0 || s.MaxVelocity > 0
}

// Reached reports whether diff and velocity are within every set threshold.
func (s Settle) Reached(diff, velocity float64) bool {
	return s.Enabled() &&
		(s.MaxDifference == 0 || math.Abs(diff) <= s.MaxDifference) &&
		(s.MaxVelocity == 0 || math.Abs(velocity) <= s.MaxVelocity)
}

// VelocityInit holds the tuning shared by every velocity-based model. The
// embedded Kinematics is the starting state.
type VelocityInit struct {
	Kinematics
	Target      float64
	Range       Range
	MaxVelocity float64 // 0 means unlimited
	MaxDelta    float64 // largest value change per sub-step, 0 means unlimited
	Settle      Settle
}

// ValidateVelocity checks the shared fields; model inits call it first.
func (i VelocityInit) ValidateVelocity(tag Tag) error {
	if !isFinite(i.Value) {
		return InvalidField(tag, "value", i.Value, "must be finite")
	}
	if !isFinite(i.Velocity) {
		return InvalidField(tag, "velocity", i.Velocity, "must be finite")
	}
	if !isFinite(i.Target) {
		return InvalidField(tag, "target", i.Target, "must be finite")
	}
	if err := i.Range.validate(tag); err != nil {
		return err
	}
	if !(i.MaxVelocity >= 0) || math.IsInf(i.MaxVelocity, 0) {
		return InvalidField(tag, "max_velocity", i.MaxVelocity, "must be finite and >= 0")
	}
	if !(i.MaxDelta >= 0) || math.IsInf(i.MaxDelta, 0) {
		return InvalidField(tag, "max_delta", i.MaxDelta, "must be finite and >= 0")
	}
	if !(i.Settle.MaxDifference >= 0) {
		return InvalidField(tag, "settle.max_difference", i.Settle.MaxDifference, "must be >= 0")
	}
	if !(i.Settle.MaxVelocity >= 0) {
		return InvalidField(tag, "settle.max_velocity", i.Settle.MaxVelocity, "must be >= 0")
	}
	return nil
}

// ClampVelocity limits v to ±MaxVelocity.
func (i *VelocityInit) ClampVelocity(v float64) float64 {
	if i.MaxVelocity <= 0 {
		return v
	}
	return math.Max(-i.MaxVelocity, math.Min(i.MaxVelocity, v))
}

// ClampDelta limits a per-step value change to ±MaxDelta.
func (i *VelocityInit) ClampDelta(d float64) float64 {
	if i.MaxDelta <= 0 {
		return d
	}
	return math.Max(-i.MaxDelta, math.Min(i.MaxDelta, d))
}

// VelocityData is the runtime state shared by every velocity-based model.
type VelocityData struct {
	Kinematics
	Target float64
}

// Kinematic exposes the shared state to the generic processor accessors.
func (d *VelocityData) Kinematic() *VelocityData {
	return d
}

// Reset loads the starting state from init.
func (d *VelocityData) Reset(init *VelocityInit) {
	d.Kinematics = init.Kinematics
	d.Value = init.Range.Normalize(init.Value)
	d.Target = init.Range.Normalize(init.Target)
}

// Difference is Target-Value measured within init's range.
func (d *VelocityData) Difference(init *VelocityInit) float64 {
	return init.Range.Difference(d.Target, d.Value)
}

// Integrate moves Value by Velocity*dt. Hitting a non-modular bound stops
// the instance there.
func (d *VelocityData) Integrate(init *VelocityInit, dt float64) {
	next := d.Value + init.ClampDelta(d.Velocity*dt)
	bounded := init.Range.Normalize(next)
	if !init.Range.Modular && bounded != next {
		d.Velocity = 0
	}
	d.Value = bounded
}

// SettleIfReached snaps onto the target when init's thresholds are met.
func (d *VelocityData) SettleIfReached(init *VelocityInit) bool {
	if !init.Settle.Reached(d.Difference(init), d.Velocity) {
		return false
	}
	d.Value = d.Target
	d.Velocity = 0
	return true
}
