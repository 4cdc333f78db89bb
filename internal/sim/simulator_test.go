package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/processors"
)

func newSimulator() (*Simulator, error) {
	r := impel.NewRegistry()
	if err := processors.RegisterAll(r); err != nil {
		return nil, err
	}
	return New(r, zerolog.Nop()), nil
}

func newTestSimulator(t *testing.T) *Simulator {
	t.Helper()
	s, err := newSimulator()
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return s
}

func overshootTrack(name string, target float64) Track {
	return Track{
		Name: name,
		Init: processors.OvershootInit{
			VelocityInit:             impel.VelocityInit{Target: target},
			AccelPerDifference:       0.001,
			WrongDirectionMultiplier: 2,
			MaxDeltaTime:             4,
		},
	}
}

func smoothTrack(name string, target float64) Track {
	return Track{
		Name: name,
		Init: processors.SmoothInit{
			VelocityInit: impel.VelocityInit{Target: target},
			SmoothTime:   100,
		},
	}
}

type testMetric struct {
	count int
}

func (m *testMetric) Name() string     { return "test" }
func (m *testMetric) Observe(s Sample) { m.count++ }
func (m *testMetric) Value() float64   { return float64(m.count) }
func (m *testMetric) Reset()           { m.count = 0 }

type testObserver struct {
	frames map[string]int
}

func (o *testObserver) OnFrame(track string, s Sample) { o.frames[track]++ }

func TestSimulatorRun(t *testing.T) {
	s := newTestSimulator(t)
	if err := s.AddTrack(overshootTrack("scale", 1)); err != nil {
		t.Fatalf("add track: %v", err)
	}
	if err := s.AddTrack(smoothTrack("alpha", 1)); err != nil {
		t.Fatalf("add track: %v", err)
	}

	cfg := Config{FrameTime: 16, Duration: 160}
	result, err := s.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Frames != 10 {
		t.Errorf("expected 10 frames, got %d", result.Frames)
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if result.Times[10] != 160 {
		t.Errorf("expected final time 160, got %d", result.Times[10])
	}
	if len(result.Order) != 2 || result.Order[0] != "scale" || result.Order[1] != "alpha" {
		t.Errorf("unexpected track order %v", result.Order)
	}
	for _, name := range result.Order {
		samples := result.Tracks[name]
		if len(samples) != 11 {
			t.Errorf("%s: expected 11 samples, got %d", name, len(samples))
		}
		if samples[0].Value != 0 {
			t.Errorf("%s: initial sample should be the start value", name)
		}
		if samples[10].Value <= 0 {
			t.Errorf("%s: expected progress toward target, got %f", name, samples[10].Value)
		}
	}
}

func TestSimulatorRun_PartialFinalFrame(t *testing.T) {
	s := newTestSimulator(t)
	_ = s.AddTrack(overshootTrack("scale", 1))

	result, err := s.Run(context.Background(), Config{FrameTime: 16, Duration: 40})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []impel.Time{0, 16, 32, 40}
	if len(result.Times) != len(want) {
		t.Fatalf("expected times %v, got %v", want, result.Times)
	}
	for i := range want {
		if result.Times[i] != want[i] {
			t.Errorf("time[%d] = %d, want %d", i, result.Times[i], want[i])
		}
	}
}

func TestSimulatorRun_SharesProcessorPerModel(t *testing.T) {
	s := newTestSimulator(t)
	_ = s.AddTrack(overshootTrack("a", 1))
	_ = s.AddTrack(overshootTrack("b", 2))

	pa, _, _ := s.Lookup("a")
	pb, _, _ := s.Lookup("b")
	if pa != pb {
		t.Error("tracks of one model should share a processor")
	}
	if pa.Len() != 2 {
		t.Errorf("expected 2 instances, got %d", pa.Len())
	}

	_ = s.AddTrack(smoothTrack("c", 3))
	names := s.Tracks()
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Errorf("tracks = %v", names)
	}
}

func TestSimulatorRun_Retarget(t *testing.T) {
	s := newTestSimulator(t)
	_ = s.AddTrack(smoothTrack("alpha", 1))

	cfg := Config{
		FrameTime: 10,
		Duration:  2000,
		Retargets: []Retarget{{At: 1000, Track: "alpha", Target: -1}},
	}
	result, err := s.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	samples := result.Tracks["alpha"]
	mid := samples[100]
	if mid.Target != 1 || math.Abs(mid.Value-1) > 0.01 {
		t.Errorf("expected settled near 1 before retarget, got %+v", mid)
	}
	last := samples[len(samples)-1]
	if last.Target != -1 || math.Abs(last.Value+1) > 0.01 {
		t.Errorf("expected settled near -1 after retarget, got %+v", last)
	}
}

func TestSimulatorRun_SamplesCarryRange(t *testing.T) {
	s := newTestSimulator(t)
	angles := impel.Range{Min: 0, Max: 360, Modular: true}
	tr := Track{
		Name: "heading",
		Init: processors.SmoothInit{
			VelocityInit: impel.VelocityInit{Kinematics: impel.Kinematics{Value: 350}, Target: 10, Range: angles},
			SmoothTime:   100,
		},
	}
	if err := s.AddTrack(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}

	result, err := s.Run(context.Background(), Config{FrameTime: 16, Duration: 160})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	first := result.Tracks["heading"][0]
	if first.Range != angles {
		t.Errorf("sample range = %+v, want %+v", first.Range, angles)
	}
	if d := first.Difference(); math.Abs(d-20) > 1e-9 {
		t.Errorf("difference across the wrap = %v, want 20", d)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := newTestSimulator(t)
	_ = s.AddTrack(overshootTrack("scale", 1))

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero frame", Config{FrameTime: 0, Duration: 100}},
		{"negative frame", Config{FrameTime: -16, Duration: 100}},
		{"zero duration", Config{FrameTime: 16, Duration: 0}},
		{"unknown retarget track", Config{FrameTime: 16, Duration: 100, Retargets: []Retarget{{Track: "nope"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorRun_NoTracks(t *testing.T) {
	s := newTestSimulator(t)
	_, err := s.Run(context.Background(), DefaultConfig())
	if !errors.Is(err, ErrNoTracks) {
		t.Errorf("expected ErrNoTracks, got %v", err)
	}
}

func TestSimulatorAddTrack_Errors(t *testing.T) {
	s := newTestSimulator(t)
	if err := s.AddTrack(overshootTrack("scale", 1)); err != nil {
		t.Fatal(err)
	}

	if err := s.AddTrack(overshootTrack("scale", 2)); !errors.Is(err, ErrDuplicateTrack) {
		t.Errorf("expected ErrDuplicateTrack, got %v", err)
	}

	bad := overshootTrack("bad", 1)
	init := bad.Init.(processors.OvershootInit)
	init.MaxDeltaTime = 0
	bad.Init = init
	if err := s.AddTrack(bad); !errors.Is(err, impel.ErrInvalidInit) {
		t.Errorf("expected ErrInvalidInit, got %v", err)
	}

	empty := New(impel.NewRegistry(), zerolog.Nop())
	if err := empty.AddTrack(overshootTrack("scale", 1)); !errors.Is(err, impel.ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestSimulatorMetricsAndObservers(t *testing.T) {
	s := newTestSimulator(t)
	_ = s.AddTrack(overshootTrack("a", 1))
	_ = s.AddTrack(smoothTrack("b", 1))

	var built []*testMetric
	s.SetMetrics(func() []Metric {
		m := &testMetric{}
		built = append(built, m)
		return []Metric{m}
	})
	obs := &testObserver{frames: map[string]int{}}
	s.AddObserver(obs)

	result, err := s.Run(context.Background(), Config{FrameTime: 16, Duration: 160})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(built) != 2 {
		t.Fatalf("expected one metric set per track, got %d", len(built))
	}
	if got := result.Metrics["a"]["test"]; got != 11 {
		t.Errorf("expected 11 observations, got %f", got)
	}
	if obs.frames["a"] != 11 || obs.frames["b"] != 11 {
		t.Errorf("unexpected observer counts %v", obs.frames)
	}
}

func TestSimulatorRun_Canceled(t *testing.T) {
	s := newTestSimulator(t)
	_ = s.AddTrack(overshootTrack("scale", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Frames != 0 {
		t.Error("expected partial result with no frames")
	}
}

func TestSweep(t *testing.T) {
	accels := []float64{0.0005, 0.001, 0.002}
	results, err := Sweep(context.Background(), len(accels), Config{FrameTime: 16, Duration: 320}, func(i int) (*Simulator, error) {
		s, err := newSimulator()
		if err != nil {
			return nil, err
		}
		tr := overshootTrack("scale", 100)
		init := tr.Init.(processors.OvershootInit)
		init.AccelPerDifference = accels[i]
		tr.Init = init
		return s, s.AddTrack(tr)
	})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	first := func(r *Result) float64 { return r.Tracks["scale"][1].Value }
	if !(first(results[0]) < first(results[1]) && first(results[1]) < first(results[2])) {
		t.Error("stronger acceleration should move further in the first frame")
	}
}
