package processors

import (
	"sync"

	"github.com/san-kum/impel/internal/impel"
)

var (
	_ impel.Processor = (*OvershootProcessor)(nil)
	_ impel.Processor = (*SmoothProcessor)(nil)
	_ impel.Processor = (*SpringProcessor)(nil)
)

// RegisterAll registers every built-in model with r.
func RegisterAll(r *impel.Registry) error {
	if err := r.Register(impel.TagOvershoot, func() impel.Processor { return NewOvershootProcessor() }); err != nil {
		return err
	}
	if err := r.Register(impel.TagSmooth, func() impel.Processor { return NewSmoothProcessor() }); err != nil {
		return err
	}
	return r.Register(impel.TagSpring, func() impel.Processor { return NewSpringProcessor() })
}

var (
	defaultsOnce sync.Once
	defaultsErr  error
)

// RegisterDefaults wires the built-in models into impel.Default. It must run
// before the first impel.CreateProcessor; repeated calls are no-ops.
func RegisterDefaults() error {
	defaultsOnce.Do(func() {
		defaultsErr = RegisterAll(impel.Default())
	})
	return defaultsErr
}
