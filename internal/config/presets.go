package config

import "sort"

var Presets = map[string]*Config{
	"menu": {
		Name: "menu", FrameTime: 16, Duration: 1200,
		Tracks: []TrackConfig{
			{
				Name: "scale", Model: "overshoot", Value: 1, Target: 1.2,
				Settle:    &SettleConfig{MaxDifference: 0.001, MaxVelocity: 0.00001},
				Overshoot: &OvershootConfig{AccelPerDifference: 0.0005, WrongDirectionMultiplier: 3, MaxDeltaTime: 10},
			},
			{
				Name: "offset", Model: "overshoot", Value: 0, Target: 48,
				Settle:    &SettleConfig{MaxDifference: 0.05, MaxVelocity: 0.001},
				Overshoot: &OvershootConfig{AccelPerDifference: 0.0003, WrongDirectionMultiplier: 2, MaxDeltaTime: 10},
			},
		},
		Retargets: []RetargetConfig{
			{At: 600, Track: "scale", Target: 1},
			{At: 600, Track: "offset", Target: 0},
		},
		Metrics: MetricsConfig{SettleTolerance: 0.01, StabilityBound: 1000},
	},
	"angle": {
		Name: "angle", FrameTime: 16, Duration: 2000,
		Tracks: []TrackConfig{
			{
				Name: "heading", Model: "overshoot", Value: 350, Target: 20,
				Range:       &RangeConfig{Min: 0, Max: 360, Modular: true},
				MaxVelocity: 0.5,
				Overshoot:   &OvershootConfig{AccelPerDifference: 0.0002, WrongDirectionMultiplier: 2, MaxDeltaTime: 10},
			},
		},
		Retargets: []RetargetConfig{
			{At: 1000, Track: "heading", Target: 300},
		},
		Metrics: MetricsConfig{SettleTolerance: 0.5, StabilityBound: 360},
	},
	"spring": {
		Name: "spring", FrameTime: 16, Duration: 2000,
		Tracks: []TrackConfig{
			{
				Name: "bouncy", Model: "spring", Value: 0, Target: 100,
				Spring: &SpringConfig{AngularFrequency: 0.02, DampingRatio: 0.2},
			},
			{
				Name: "critical", Model: "spring", Value: 0, Target: 100,
				Spring: &SpringConfig{AngularFrequency: 0.02, DampingRatio: 1},
			},
		},
		Retargets: []RetargetConfig{
			{At: 1000, Track: "bouncy", Target: 0},
			{At: 1000, Track: "critical", Target: 0},
		},
		Metrics: MetricsConfig{SettleTolerance: 0.5, StabilityBound: 1000},
	},
	"smooth": {
		Name: "smooth", FrameTime: 16, Duration: 1500,
		Tracks: []TrackConfig{
			{
				Name: "fade", Model: "smooth", Value: 0, Target: 1,
				Range:  &RangeConfig{Min: 0, Max: 1},
				Smooth: &SmoothConfig{SmoothTime: 150},
			},
			{
				Name: "reference", Model: "overshoot", Value: 0, Target: 1,
				Overshoot: DefaultOvershoot(),
			},
		},
		Metrics: MetricsConfig{SettleTolerance: 0.01, StabilityBound: 10},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
