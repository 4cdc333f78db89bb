package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/impel/internal/sim"
)

type ExportTrack struct {
	Name     string    `json:"name"`
	Times    []int     `json:"times"`
	Values   []float64 `json:"values"`
	Velocity []float64 `json:"velocity"`
	Targets  []float64 `json:"targets"`
}

type ExportData struct {
	Name      string                        `json:"name"`
	FrameTime int                           `json:"frame_time"`
	Duration  int                           `json:"duration"`
	Frames    int                           `json:"frames"`
	Tracks    []ExportTrack                 `json:"tracks"`
	Metrics   map[string]map[string]float64 `json:"metrics"`
}

func ExportMetadata(w io.Writer, meta *RunMetadata) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(meta)
}

// ExportJSON writes a column-oriented JSON document of the run, one entry
// per track.
func ExportJSON(w io.Writer, meta RunMetadata, result *sim.Result) error {
	data := ExportData{
		Name:      meta.Name,
		FrameTime: meta.FrameTime,
		Duration:  meta.Duration,
		Frames:    result.Frames,
		Tracks:    make([]ExportTrack, 0, len(result.Order)),
		Metrics:   result.Metrics,
	}

	for _, name := range result.Order {
		samples := result.Tracks[name]
		tr := ExportTrack{
			Name:     name,
			Times:    make([]int, len(samples)),
			Values:   make([]float64, len(samples)),
			Velocity: make([]float64, len(samples)),
			Targets:  make([]float64, len(samples)),
		}
		for i, s := range samples {
			tr.Times[i] = int(s.Time)
			tr.Values[i] = s.Value
			tr.Velocity[i] = s.Velocity
			tr.Targets[i] = s.Target
		}
		data.Tracks = append(data.Tracks, tr)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
