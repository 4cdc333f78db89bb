package sim

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/san-kum/impel/internal/impel"
)

type track struct {
	name    string
	proc    impel.Processor
	handle  impel.Handle
	metrics []Metric
}

// Simulator drives a set of named tracks frame by frame. Tracks of the same
// model share one processor created through the registry.
type Simulator struct {
	registry   *impel.Registry
	processors map[impel.Tag]impel.Processor
	order      []impel.Tag
	tracks     []*track
	byName     map[string]*track
	newMetrics func() []Metric
	observers  []Observer
	log        zerolog.Logger
}

func New(registry *impel.Registry, log zerolog.Logger) *Simulator {
	return &Simulator{
		registry:   registry,
		processors: make(map[impel.Tag]impel.Processor),
		byName:     make(map[string]*track),
		log:        log,
	}
}

// SetMetrics installs a factory that builds a fresh metric set per track at
// the start of every Run.
func (s *Simulator) SetMetrics(fn func() []Metric) {
	s.newMetrics = fn
}

func (s *Simulator) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// AddTrack creates an instance for tr, creating its model's processor on
// first use.
func (s *Simulator) AddTrack(tr Track) error {
	if tr.Name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownTrack)
	}
	if _, ok := s.byName[tr.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTrack, tr.Name)
	}
	if tr.Init == nil {
		return fmt.Errorf("track %s: %w: nil init", tr.Name, impel.ErrInvalidInit)
	}

	tag := tr.Init.Tag()
	proc, ok := s.processors[tag]
	if !ok {
		var err error
		proc, err = s.registry.CreateProcessor(tag)
		if err != nil {
			return fmt.Errorf("track %s: %w", tr.Name, err)
		}
		s.processors[tag] = proc
		s.order = append(s.order, tag)
		sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
		s.log.Debug().Stringer("model", tag).Msg("processor created")
	}

	h, err := proc.Create(tr.Init)
	if err != nil {
		return fmt.Errorf("track %s: %w", tr.Name, err)
	}

	t := &track{name: tr.Name, proc: proc, handle: h}
	s.tracks = append(s.tracks, t)
	s.byName[tr.Name] = t
	return nil
}

// Tracks returns the track names in the order they were added.
func (s *Simulator) Tracks() []string {
	names := make([]string, len(s.tracks))
	for i, t := range s.tracks {
		names[i] = t.name
	}
	return names
}

// Lookup returns the processor and handle backing a track.
func (s *Simulator) Lookup(name string) (impel.Processor, impel.Handle, error) {
	t, ok := s.byName[name]
	if !ok {
		return nil, impel.Handle{}, fmt.Errorf("%w: %s", ErrUnknownTrack, name)
	}
	return t.proc, t.handle, nil
}

func (s *Simulator) Retarget(name string, target float64) error {
	t, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, name)
	}
	return t.proc.SetTarget(t.handle, target)
}

// Step advances every processor by dt, in model tag order.
func (s *Simulator) Step(dt impel.Time) {
	for _, tag := range s.order {
		s.processors[tag].AdvanceFrame(dt)
	}
}

// Sample reads a track's current state.
func (s *Simulator) Sample(name string, at impel.Time) (Sample, error) {
	t, ok := s.byName[name]
	if !ok {
		return Sample{}, fmt.Errorf("%w: %s", ErrUnknownTrack, name)
	}
	return s.sample(t, at)
}

func (s *Simulator) sample(t *track, at impel.Time) (Sample, error) {
	value, err := t.proc.Value(t.handle)
	if err != nil {
		return Sample{}, err
	}
	velocity, err := t.proc.Velocity(t.handle)
	if err != nil {
		return Sample{}, err
	}
	target, err := t.proc.Target(t.handle)
	if err != nil {
		return Sample{}, err
	}
	r, err := t.proc.Range(t.handle)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Time: at, Value: value, Velocity: velocity, Target: target, Range: r}, nil
}

// Run advances the tracks from their current state for cfg.Duration in
// cfg.FrameTime frames; a shorter final frame covers any remainder.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	retargets := make([]Retarget, len(cfg.Retargets))
	copy(retargets, cfg.Retargets)
	sort.SliceStable(retargets, func(i, j int) bool { return retargets[i].At < retargets[j].At })

	frames := int((cfg.Duration + cfg.FrameTime - 1) / cfg.FrameTime)
	result := &Result{
		Order:   make([]string, 0, len(s.tracks)),
		Times:   make([]impel.Time, 0, frames+1),
		Tracks:  make(map[string][]Sample, len(s.tracks)),
		Metrics: make(map[string]map[string]float64, len(s.tracks)),
		Errors:  make([]error, 0),
	}
	for _, t := range s.tracks {
		result.Order = append(result.Order, t.name)
		result.Tracks[t.name] = make([]Sample, 0, frames+1)
		t.metrics = nil
		if s.newMetrics != nil {
			t.metrics = s.newMetrics()
		}
	}

	s.log.Debug().Int("tracks", len(s.tracks)).Int("frames", frames).Msg("run started")

	t := impel.Time(0)
	if err := s.record(result, t, 0, cfg); err != nil {
		return nil, err
	}

	next := 0
	for frame := 1; frame <= frames; frame++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for next < len(retargets) && retargets[next].At <= t {
			rt := retargets[next]
			if err := s.Retarget(rt.Track, rt.Target); err != nil {
				return result, err
			}
			s.log.Debug().Str("track", rt.Track).Float64("target", rt.Target).Int("at", int(t)).Msg("retarget")
			next++
		}

		dt := min(cfg.FrameTime, cfg.Duration-t)
		s.Step(dt)
		t += dt
		result.Frames++

		if err := s.record(result, t, frame, cfg); err != nil {
			result.Errors = append(result.Errors, err)
			break
		}
	}

	for _, tr := range s.tracks {
		values := make(map[string]float64, len(tr.metrics))
		for _, m := range tr.metrics {
			values[m.Name()] = m.Value()
		}
		result.Metrics[tr.name] = values
	}

	s.log.Debug().Int("frames", result.Frames).Int("errors", len(result.Errors)).Msg("run finished")
	return result, nil
}

func (s *Simulator) record(result *Result, at impel.Time, frame int, cfg Config) error {
	result.Times = append(result.Times, at)
	for _, t := range s.tracks {
		smp, err := s.sample(t, at)
		if err != nil {
			return err
		}
		if cfg.ValidateState && !smp.IsValid() {
			return SimError{Time: at, Frame: frame, Track: t.name, Message: "invalid state (NaN/Inf)"}
		}
		result.Tracks[t.name] = append(result.Tracks[t.name], smp)
		for _, m := range t.metrics {
			m.Observe(smp)
		}
		for _, obs := range s.observers {
			obs.OnFrame(t.name, smp)
		}
	}
	return nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.FrameTime <= 0 {
		return fmt.Errorf("frame time must be positive, got %d", cfg.FrameTime)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %d", cfg.Duration)
	}
	if len(s.tracks) == 0 {
		return ErrNoTracks
	}
	for _, rt := range cfg.Retargets {
		if _, ok := s.byName[rt.Track]; !ok {
			return fmt.Errorf("retarget at %d: %w: %s", rt.At, ErrUnknownTrack, rt.Track)
		}
	}
	return nil
}
