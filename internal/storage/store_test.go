package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/sim"
)

var angleRange = impel.Range{Min: 0, Max: 360, Modular: true}

func testResult() *sim.Result {
	return &sim.Result{
		Order: []string{"scale", "angle"},
		Times: []impel.Time{0, 16, 32},
		Tracks: map[string][]sim.Sample{
			"scale": {
				{Time: 0, Value: 1, Velocity: 0, Target: 1.2},
				{Time: 16, Value: 1.05, Velocity: 0.003, Target: 1.2},
				{Time: 32, Value: 1.1234567891, Velocity: 0.0025, Target: 1.2},
			},
			"angle": {
				{Time: 0, Value: 350, Velocity: 0, Target: 10, Range: angleRange},
				{Time: 16, Value: 355, Velocity: 0.3, Target: 10, Range: angleRange},
				{Time: 32, Value: 2, Velocity: 0.4, Target: 10, Range: angleRange},
			},
		},
		Metrics: map[string]map[string]float64{
			"scale": {"overshoot": 0.01},
		},
		Frames: 2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := testResult()
	result.Errors = []error{fmt.Errorf("boom")}

	meta := RunMetadata{
		Name:      "menu",
		FrameTime: 16,
		Duration:  32,
		Tracks:    []TrackMeta{{Name: "scale", Model: "overshoot"}, {Name: "angle", Model: "overshoot"}},
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "menu_") {
		t.Errorf("unexpected run id %q", runID)
	}

	got, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.ID != runID || got.Frames != 2 || len(got.Tracks) != 2 {
		t.Errorf("metadata = %+v", got)
	}
	if got.Tracks[0].Range != nil {
		t.Errorf("unbounded track should carry no range, got %+v", got.Tracks[0].Range)
	}
	if r := got.Tracks[1].Range; r == nil || *r != (RangeMeta{Min: 0, Max: 360, Modular: true}) {
		t.Errorf("angle range = %+v", r)
	}
	if meta.Tracks[1].Range != nil {
		t.Error("Save must not modify the caller's track list")
	}
	if got.Metrics["scale"]["overshoot"] != 0.01 {
		t.Errorf("expected overshoot 0.01, got %v", got.Metrics["scale"])
	}
	if len(got.Errors) != 1 || got.Errors[0] != "boom" {
		t.Errorf("errors = %v", got.Errors)
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples.Order) != 2 || samples.Order[0] != "scale" || samples.Order[1] != "angle" {
		t.Errorf("order = %v", samples.Order)
	}
	if len(samples.Times) != 3 || samples.Frames != 2 {
		t.Errorf("times = %v frames = %d", samples.Times, samples.Frames)
	}
	for _, name := range result.Order {
		want := result.Tracks[name]
		have := samples.Tracks[name]
		if len(have) != len(want) {
			t.Fatalf("%s: %d samples, want %d", name, len(have), len(want))
		}
		for i := range want {
			if have[i] != want[i] {
				t.Errorf("%s[%d] = %+v, want %+v", name, i, have[i], want[i])
			}
		}
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := st.Save(RunMetadata{Name: "first"}, testResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := st.Save(RunMetadata{Name: "second"}, testResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("expected newest run first")
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "run_") {
		t.Errorf("expected default name, got %q", runID)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}

	data, err := os.ReadFile(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		t.Fatalf("samples.csv not created: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "time,track,value,velocity,target" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 7 {
		t.Errorf("expected 7 lines, got %d", len(lines))
	}
	if lines[2] != "0,angle,350,0,10" {
		t.Errorf("row = %q", lines[2])
	}
}

func TestStoreLoadSamples_WrapAroundDifference(t *testing.T) {
	st := New(t.TempDir())
	meta := RunMetadata{Name: "dial", Tracks: []TrackMeta{{Name: "angle", Model: "smooth"}}}
	result := &sim.Result{
		Order:  []string{"angle"},
		Times:  []impel.Time{0, 16, 32},
		Tracks: map[string][]sim.Sample{"angle": testResult().Tracks["angle"]},
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	want := []float64{20, 15, 8}
	for i, s := range loaded.Tracks["angle"] {
		if d := s.Difference(); d != want[i] {
			t.Errorf("difference[%d] = %v, want %v", i, d, want[i])
		}
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("nope"); !errors.Is(err, ErrNoRun) {
		t.Errorf("expected ErrNoRun, got %v", err)
	}
	if _, err := st.LoadSamples("nope"); !errors.Is(err, ErrNoRun) {
		t.Errorf("expected ErrNoRun, got %v", err)
	}
}

func TestReadSamples_Malformed(t *testing.T) {
	tests := []string{
		"time,track,value,velocity,target\nx,a,1,2,3\n",
		"time,track,value,velocity,target\n0,a,one,2,3\n",
		"time,track,value,velocity,target\n0,a,1,2\n",
	}
	for _, src := range tests {
		if _, err := ReadSamples(strings.NewReader(src)); err == nil {
			t.Errorf("expected error for %q", src)
		}
	}

	res, err := ReadSamples(strings.NewReader("time,track,value,velocity,target\n"))
	if err != nil || len(res.Order) != 0 {
		t.Errorf("header only: %v %v", res, err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, RunMetadata{Name: "menu", FrameTime: 16}, testResult()); err != nil {
		t.Fatalf("export: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Name != "menu" || data.Frames != 2 || len(data.Tracks) != 2 {
		t.Fatalf("data = %+v", data)
	}
	if data.Tracks[1].Name != "angle" || data.Tracks[1].Values[2] != 2 || data.Tracks[1].Times[1] != 16 {
		t.Errorf("angle track = %+v", data.Tracks[1])
	}
}
