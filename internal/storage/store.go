package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var ErrNoRun = errors.New("storage: run not found")

var csvHeader = []string{"time", "track", "value", "velocity", "target"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type TrackMeta struct {
	Name  string     `json:"name"`
	Model string     `json:"model"`
	Range *RangeMeta `json:"range,omitempty"`
}

// RangeMeta is a track's value range. Tracks without one are unbounded.
type RangeMeta struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Modular bool    `json:"modular,omitempty"`
}

type RunMetadata struct {
	ID        string                        `json:"id"`
	Name      string                        `json:"name"`
	Timestamp time.Time                     `json:"timestamp"`
	FrameTime int                           `json:"frame_time"`
	Duration  int                           `json:"duration"`
	Frames    int                           `json:"frames"`
	Tracks    []TrackMeta                   `json:"tracks"`
	Metrics   map[string]map[string]float64 `json:"metrics"`
	Errors    []string                      `json:"errors,omitempty"`
}

// Save writes meta and the result samples into a new run directory and
// returns the run ID. ID, Timestamp, Frames, Metrics and Errors are filled
// from the result, as is the range of any bounded track meta leaves unset.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	name := meta.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Name = name
	meta.Timestamp = now
	meta.Frames = result.Frames
	meta.Metrics = result.Metrics
	meta.Errors = nil
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}
	meta.Tracks = withRanges(meta.Tracks, result)

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteSamples(csvFile, result); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteSamples writes one CSV row per track per recorded frame, tracks in
// insertion order.
func WriteSamples(out io.Writer, result *sim.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for i := range result.Times {
		for _, name := range result.Order {
			samples := result.Tracks[name]
			if i >= len(samples) {
				continue
			}
			smp := samples[i]
			row := []string{
				strconv.Itoa(int(smp.Time)),
				name,
				strconv.FormatFloat(smp.Value, 'g', -1, 64),
				strconv.FormatFloat(smp.Velocity, 'g', -1, 64),
				strconv.FormatFloat(smp.Target, 'g', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the stored runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSamples rebuilds the recorded samples of a run. Order follows the
// first appearance of each track in the file. Track ranges come from the
// run metadata when it is present.
func (s *Store) LoadSamples(runID string) (*sim.Result, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
		}
		return nil, err
	}
	defer file.Close()

	result, err := ReadSamples(file)
	if err != nil {
		return nil, err
	}
	meta, err := s.Load(runID)
	switch {
	case errors.Is(err, ErrNoRun):
		return result, nil
	case err != nil:
		return nil, err
	}
	ApplyRanges(result, meta.Tracks)
	return result, nil
}

// ApplyRanges sets the range of every sample whose track has one in tracks.
func ApplyRanges(result *sim.Result, tracks []TrackMeta) {
	for _, tm := range tracks {
		if tm.Range == nil {
			continue
		}
		r := impel.Range{Min: tm.Range.Min, Max: tm.Range.Max, Modular: tm.Range.Modular}
		samples := result.Tracks[tm.Name]
		for i := range samples {
			samples[i].Range = r
		}
	}
}

func withRanges(tracks []TrackMeta, result *sim.Result) []TrackMeta {
	out := make([]TrackMeta, len(tracks))
	copy(out, tracks)
	for i := range out {
		samples := result.Tracks[out[i].Name]
		if out[i].Range != nil || len(samples) == 0 || !samples[0].Range.Bounded() {
			continue
		}
		r := samples[0].Range
		out[i].Range = &RangeMeta{Min: r.Min, Max: r.Max, Modular: r.Modular}
	}
	return out
}

func ReadSamples(in io.Reader) (*sim.Result, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = len(csvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	result := &sim.Result{Tracks: make(map[string][]sim.Sample)}
	if len(records) < 2 {
		return result, nil
	}

	lastTime := impel.Time(-1)
	for line, rec := range records[1:] {
		smp, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("samples line %d: %w", line+2, err)
		}
		name := rec[1]
		if _, ok := result.Tracks[name]; !ok {
			result.Order = append(result.Order, name)
		}
		result.Tracks[name] = append(result.Tracks[name], smp)
		if len(result.Times) == 0 || smp.Time != lastTime {
			result.Times = append(result.Times, smp.Time)
			lastTime = smp.Time
		}
	}
	if len(result.Times) > 0 {
		result.Frames = len(result.Times) - 1
	}
	return result, nil
}

func parseRow(rec []string) (sim.Sample, error) {
	t, err := strconv.Atoi(rec[0])
	if err != nil {
		return sim.Sample{}, err
	}
	var vals [3]float64
	for i := range vals {
		vals[i], err = strconv.ParseFloat(rec[2+i], 64)
		if err != nil {
			return sim.Sample{}, err
		}
	}
	return sim.Sample{
		Time:     impel.Time(t),
		Value:    vals[0],
		Velocity: vals[1],
		Target:   vals[2],
	}, nil
}
