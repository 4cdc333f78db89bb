package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/processors"
	"github.com/san-kum/impel/internal/sim"
)

const (
	DefaultFrameTime = 16
	DefaultDuration  = 2000

	DefaultAccelPerDifference       = 0.0005
	DefaultWrongDirectionMultiplier = 3.0
	DefaultMaxDeltaTime             = 10
	DefaultSmoothTime               = 120.0
	DefaultAngularFrequency         = 0.02
	DefaultDampingRatio             = 0.4

	DefaultSettleTolerance = 0.01
	DefaultStabilityBound  = 1e6
)

type Config struct {
	Name      string           `yaml:"name"`
	FrameTime int              `yaml:"frame_time"`
	Duration  int              `yaml:"duration"`
	Tracks    []TrackConfig    `yaml:"tracks"`
	Retargets []RetargetConfig `yaml:"retargets,omitempty"`
	Metrics   MetricsConfig    `yaml:"metrics"`
}

type TrackConfig struct {
	Name        string           `yaml:"name"`
	Model       string           `yaml:"model"`
	Value       float64          `yaml:"value"`
	Velocity    float64          `yaml:"velocity"`
	Target      float64          `yaml:"target"`
	Range       *RangeConfig     `yaml:"range,omitempty"`
	MaxVelocity float64          `yaml:"max_velocity,omitempty"`
	MaxDelta    float64          `yaml:"max_delta,omitempty"`
	Settle      *SettleConfig    `yaml:"settle,omitempty"`
	Overshoot   *OvershootConfig `yaml:"overshoot,omitempty"`
	Smooth      *SmoothConfig    `yaml:"smooth,omitempty"`
	Spring      *SpringConfig    `yaml:"spring,omitempty"`
}

type RangeConfig struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Modular bool    `yaml:"modular"`
}

type SettleConfig struct {
	MaxDifference float64 `yaml:"max_difference"`
	MaxVelocity   float64 `yaml:"max_velocity"`
}

type OvershootConfig struct {
	AccelPerDifference       float64 `yaml:"accel_per_difference"`
	WrongDirectionMultiplier float64 `yaml:"wrong_direction_multiplier"`
	MaxDeltaTime             int     `yaml:"max_delta_time"`
}

type SmoothConfig struct {
	SmoothTime float64 `yaml:"smooth_time"`
}

type SpringConfig struct {
	AngularFrequency float64 `yaml:"angular_frequency"`
	DampingRatio     float64 `yaml:"damping_ratio"`
}

type RetargetConfig struct {
	At     int     `yaml:"at"`
	Track  string  `yaml:"track"`
	Target float64 `yaml:"target"`
}

type MetricsConfig struct {
	SettleTolerance float64 `yaml:"settle_tolerance"`
	StabilityBound  float64 `yaml:"stability_bound"`
}

func DefaultOvershoot() *OvershootConfig {
	return &OvershootConfig{
		AccelPerDifference:       DefaultAccelPerDifference,
		WrongDirectionMultiplier: DefaultWrongDirectionMultiplier,
		MaxDeltaTime:             DefaultMaxDeltaTime,
	}
}

// UnmarshalYAML starts from DefaultOvershoot so a partial section only
// overrides the keys it names.
func (o *OvershootConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain OvershootConfig
	v := plain(*DefaultOvershoot())
	if err := n.Decode(&v); err != nil {
		return err
	}
	*o = OvershootConfig(v)
	return nil
}

func (s *SmoothConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain SmoothConfig
	v := plain{SmoothTime: DefaultSmoothTime}
	if err := n.Decode(&v); err != nil {
		return err
	}
	*s = SmoothConfig(v)
	return nil
}

func (s *SpringConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain SpringConfig
	v := plain{AngularFrequency: DefaultAngularFrequency, DampingRatio: DefaultDampingRatio}
	if err := n.Decode(&v); err != nil {
		return err
	}
	*s = SpringConfig(v)
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Name:      "default",
		FrameTime: DefaultFrameTime,
		Duration:  DefaultDuration,
		Tracks: []TrackConfig{
			{Name: "value", Model: "overshoot", Target: 1, Overshoot: DefaultOvershoot()},
		},
		Metrics: MetricsConfig{
			SettleTolerance: DefaultSettleTolerance,
			StabilityBound:  DefaultStabilityBound,
		},
	}
}

// Load reads a YAML file over the defaults. A file that lists tracks
// replaces the default track list.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Tracks = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Tracks) == 0 {
		cfg.Tracks = DefaultConfig().Tracks
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything Run would reject, so errors surface before
// any processor is created.
func (c *Config) Validate() error {
	if c.FrameTime <= 0 {
		return fmt.Errorf("frame_time must be positive, got %d", c.FrameTime)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %d", c.Duration)
	}
	if len(c.Tracks) == 0 {
		return sim.ErrNoTracks
	}

	seen := make(map[string]bool, len(c.Tracks))
	for i := range c.Tracks {
		tr := &c.Tracks[i]
		if tr.Name == "" {
			return fmt.Errorf("track %d: name is required", i)
		}
		if seen[tr.Name] {
			return fmt.Errorf("%w: %s", sim.ErrDuplicateTrack, tr.Name)
		}
		seen[tr.Name] = true
		if _, err := tr.Init(); err != nil {
			return fmt.Errorf("track %s: %w", tr.Name, err)
		}
	}

	for _, rt := range c.Retargets {
		if !seen[rt.Track] {
			return fmt.Errorf("retarget at %d: %w: %s", rt.At, sim.ErrUnknownTrack, rt.Track)
		}
		if rt.At < 0 {
			return fmt.Errorf("retarget %s: at must be >= 0, got %d", rt.Track, rt.At)
		}
	}
	return nil
}

// Init converts the track into the typed init record of its model. Missing
// model sections fall back to the package defaults.
func (t *TrackConfig) Init() (impel.Init, error) {
	tag, err := impel.ParseTag(t.Model)
	if err != nil {
		return nil, err
	}

	base := impel.VelocityInit{
		Kinematics:  impel.Kinematics{Value: t.Value, Velocity: t.Velocity},
		Target:      t.Target,
		MaxVelocity: t.MaxVelocity,
		MaxDelta:    t.MaxDelta,
	}
	if t.Range != nil {
		base.Range = impel.Range{Min: t.Range.Min, Max: t.Range.Max, Modular: t.Range.Modular}
	}
	if t.Settle != nil {
		base.Settle = impel.Settle{MaxDifference: t.Settle.MaxDifference, MaxVelocity: t.Settle.MaxVelocity}
	}

	var init impel.Init
	switch tag {
	case impel.TagOvershoot:
		o := t.Overshoot
		if o == nil {
			o = DefaultOvershoot()
		}
		init = processors.OvershootInit{
			VelocityInit:             base,
			AccelPerDifference:       o.AccelPerDifference,
			WrongDirectionMultiplier: o.WrongDirectionMultiplier,
			MaxDeltaTime:             impel.Time(o.MaxDeltaTime),
		}
	case impel.TagSmooth:
		st := DefaultSmoothTime
		if t.Smooth != nil {
			st = t.Smooth.SmoothTime
		}
		init = processors.SmoothInit{VelocityInit: base, SmoothTime: st}
	case impel.TagSpring:
		sp := SpringConfig{AngularFrequency: DefaultAngularFrequency, DampingRatio: DefaultDampingRatio}
		if t.Spring != nil {
			sp = *t.Spring
		}
		init = processors.SpringInit{
			VelocityInit:     base,
			AngularFrequency: sp.AngularFrequency,
			DampingRatio:     sp.DampingRatio,
		}
	default:
		return nil, fmt.Errorf("%w: %s", impel.ErrUnknownModel, t.Model)
	}

	if err := init.Validate(); err != nil {
		return nil, err
	}
	return init, nil
}

func (c *Config) SimTracks() ([]sim.Track, error) {
	tracks := make([]sim.Track, 0, len(c.Tracks))
	for i := range c.Tracks {
		init, err := c.Tracks[i].Init()
		if err != nil {
			return nil, fmt.Errorf("track %s: %w", c.Tracks[i].Name, err)
		}
		tracks = append(tracks, sim.Track{Name: c.Tracks[i].Name, Init: init})
	}
	return tracks, nil
}

func (c *Config) SimConfig() sim.Config {
	cfg := sim.Config{
		FrameTime:     impel.Time(c.FrameTime),
		Duration:      impel.Time(c.Duration),
		ValidateState: true,
	}
	for _, rt := range c.Retargets {
		cfg.Retargets = append(cfg.Retargets, sim.Retarget{
			At:     impel.Time(rt.At),
			Track:  rt.Track,
			Target: rt.Target,
		})
	}
	return cfg
}

// Clone returns a copy that shares no slices or section pointers with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Tracks = make([]TrackConfig, len(c.Tracks))
	for i, tr := range c.Tracks {
		if tr.Range != nil {
			r := *tr.Range
			tr.Range = &r
		}
		if tr.Settle != nil {
			s := *tr.Settle
			tr.Settle = &s
		}
		if tr.Overshoot != nil {
			o := *tr.Overshoot
			tr.Overshoot = &o
		}
		if tr.Smooth != nil {
			s := *tr.Smooth
			tr.Smooth = &s
		}
		if tr.Spring != nil {
			s := *tr.Spring
			tr.Spring = &s
		}
		out.Tracks[i] = tr
	}
	out.Retargets = append([]RetargetConfig(nil), c.Retargets...)
	return &out
}
