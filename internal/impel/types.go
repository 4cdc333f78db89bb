package impel

import (
	"fmt"
	"math"
	"strings"
)

// Time is the engine's integer time unit. Tuning constants are expressed per
// unit; the CLI and presets use milliseconds.
type Time int

// Kinematics is the state every velocity-based model carries.
type Kinematics struct {
	Value    float64
	Velocity float64
}

// IsFinite reports whether neither component is NaN or Inf.
func (k Kinematics) IsFinite() bool {
	return isFinite(k.Value) && isFinite(k.Velocity)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Tag identifies a dynamics model in the registry.
type Tag int

const (
	TagInvalid Tag = iota
	TagOvershoot
	TagSmooth
	TagSpring
)

var tagNames = map[Tag]string{
	TagOvershoot: "overshoot",
	TagSmooth:    "smooth",
	TagSpring:    "spring",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// ParseTag resolves a built-in model name.
func ParseTag(name string) (Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for tag, n := range tagNames {
		if n == name {
			return tag, nil
		}
	}
	return TagInvalid, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Init is the tuning record bound to an instance by Initialize.
type Init interface {
	Tag() Tag
	Validate() error
}

// Handle addresses one instance inside the processor that created it.
// The zero Handle never refers to a live instance.
type Handle struct {
	owner uint32
	index int
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("#%d:%d.%d", h.owner, h.index, h.gen)
}
