package impel

import "fmt"

// Processor advances every instance of one dynamics model.
//
// Instances are created uninitialized by New, or in one step by Create.
// Value and velocity change only inside AdvanceFrame; callers steer an
// instance through SetTarget and UpdateInit.
type Processor interface {
	Tag() Tag

	New() Handle
	Initialize(h Handle, init Init) error
	Create(init Init) (Handle, error)
	UpdateInit(h Handle, init Init) error
	Remove(h Handle) error
	Len() int

	// AdvanceFrame moves every initialized instance forward by dt.
	// Non-positive dt is a no-op.
	AdvanceFrame(dt Time)

	Value(h Handle) (float64, error)
	Velocity(h Handle) (float64, error)
	Target(h Handle) (float64, error)
	SetTarget(h Handle, target float64) error

	// Range reports the value range h wraps or clamps into.
	Range(h Handle) (Range, error)
}

// Record is the contract a model's per-instance data meets so that
// VelocityProcessor can manage it.
type Record interface {
	Kinematic() *VelocityData
	Initialize(init Init) error
	Tuning() *VelocityInit
}

// RecordPtr constrains P to be *D implementing Record.
type RecordPtr[D any] interface {
	*D
	Record
}

// VelocityProcessor implements everything in Processor except AdvanceFrame
// for models whose data embeds VelocityData. D is the data type, P its
// pointer type.
type VelocityProcessor[D any, P RecordPtr[D]] struct {
	Pool[D]
	tag Tag
}

// NewVelocityProcessor returns an empty processor base for tag.
func NewVelocityProcessor[D any, P RecordPtr[D]](tag Tag) VelocityProcessor[D, P] {
	return VelocityProcessor[D, P]{tag: tag}
}

func (p *VelocityProcessor[D, P]) Tag() Tag {
	return p.tag
}

func (p *VelocityProcessor[D, P]) build(init Init) (D, error) {
	var fresh D
	if init == nil {
		return fresh, fmt.Errorf("%w: nil init", ErrInvalidInit)
	}
	if init.Tag() != p.tag {
		return fresh, fmt.Errorf("%w: %s processor given %s init", ErrModelMismatch, p.tag, init.Tag())
	}
	if err := init.Validate(); err != nil {
		return fresh, err
	}
	if err := P(&fresh).Initialize(init); err != nil {
		return fresh, err
	}
	return fresh, nil
}

// Initialize binds init to h and loads its starting state. Calling it on an
// initialized instance restarts that instance.
func (p *VelocityProcessor[D, P]) Initialize(h Handle, init Init) error {
	if _, err := p.slot(h); err != nil {
		return err
	}
	fresh, err := p.build(init)
	if err != nil {
		return err
	}
	return p.Activate(h, fresh)
}

// Create allocates and initializes an instance. On failure no slot is held.
func (p *VelocityProcessor[D, P]) Create(init Init) (Handle, error) {
	fresh, err := p.build(init)
	if err != nil {
		return Handle{}, err
	}
	h := p.New()
	if err := p.Activate(h, fresh); err != nil {
		return Handle{}, err
	}
	return h, nil
}

// UpdateInit replaces the tuning of h while keeping its value, velocity and
// target. Value and target are normalized into the new range.
func (p *VelocityProcessor[D, P]) UpdateInit(h Handle, init Init) error {
	d, err := p.Get(h)
	if err != nil {
		return err
	}
	fresh, err := p.build(init)
	if err != nil {
		return err
	}
	state := *P(d).Kinematic()
	*d = fresh
	k := P(d).Kinematic()
	*k = state
	r := P(d).Tuning().Range
	k.Value = r.Normalize(k.Value)
	k.Target = r.Normalize(k.Target)
	return nil
}

func (p *VelocityProcessor[D, P]) Value(h Handle) (float64, error) {
	d, err := p.Get(h)
	if err != nil {
		return 0, err
	}
	return P(d).Kinematic().Value, nil
}

func (p *VelocityProcessor[D, P]) Velocity(h Handle) (float64, error) {
	d, err := p.Get(h)
	if err != nil {
		return 0, err
	}
	return P(d).Kinematic().Velocity, nil
}

func (p *VelocityProcessor[D, P]) Target(h Handle) (float64, error) {
	d, err := p.Get(h)
	if err != nil {
		return 0, err
	}
	return P(d).Kinematic().Target, nil
}

func (p *VelocityProcessor[D, P]) Range(h Handle) (Range, error) {
	d, err := p.Get(h)
	if err != nil {
		return Range{}, err
	}
	return P(d).Tuning().Range, nil
}

// SetTarget moves the resting point of h. Targets are normalized into the
// instance's range.
func (p *VelocityProcessor[D, P]) SetTarget(h Handle, target float64) error {
	if !isFinite(target) {
		return fmt.Errorf("%w: target %g", ErrInvalidInit, target)
	}
	d, err := p.Get(h)
	if err != nil {
		return err
	}
	P(d).Kinematic().Target = P(d).Tuning().Range.Normalize(target)
	return nil
}
