package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/impel/internal/impel"
)

var (
	ErrDuplicateTrack = errors.New("sim: duplicate track")
	ErrUnknownTrack   = errors.New("sim: unknown track")
	ErrNoTracks       = errors.New("sim: no tracks")
)

// Sample is one track's state at the end of a frame. Range is the track's
// value range; the zero Range is unbounded.
type Sample struct {
	Time     impel.Time
	Value    float64
	Velocity float64
	Target   float64
	Range    impel.Range
}

// Difference is Target-Value, taken the short way around a modular range.
func (s Sample) Difference() float64 {
	return s.Range.Difference(s.Target, s.Value)
}

// Delta is the signed change in value from prev to s.
func (s Sample) Delta(prev Sample) float64 {
	return s.Range.Difference(s.Value, prev.Value)
}

func (s Sample) IsValid() bool {
	for _, v := range [...]float64{s.Value, s.Velocity, s.Target} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(track string, s Sample)
}

// Track is a named animated value and the init it is created with.
type Track struct {
	Name string
	Init impel.Init
}

// Retarget moves a track's target once the run reaches At.
type Retarget struct {
	At     impel.Time
	Track  string
	Target float64
}

type Config struct {
	FrameTime     impel.Time
	Duration      impel.Time
	Retargets     []Retarget
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		FrameTime:     16,
		Duration:      2000,
		ValidateState: true,
	}
}

type Result struct {
	Order   []string // track names in the order they were added
	Times   []impel.Time
	Tracks  map[string][]Sample
	Metrics map[string]map[string]float64
	Frames  int
	Errors  []error
}

type SimError struct {
	Time    impel.Time
	Frame   int
	Track   string
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("frame %d (t=%d) track %s: %s", e.Frame, e.Time, e.Track, e.Message)
}
