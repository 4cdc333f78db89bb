package impel

import (
	"fmt"
	"sort"
	"sync"
)

// Factory returns a new, empty processor.
type Factory func() Processor

// Registry maps model tags to processor factories.
//
// Registration is a bootstrap step: all factories are registered before the
// first CreateProcessor, which seals the registry. Later registrations fail
// with ErrRegistrySealed, and registering a tag twice fails with
// ErrDuplicateModel.
type Registry struct {
	mu        sync.RWMutex
	factories map[Tag]Factory
	sealed    bool
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[Tag]Factory)}
}

func (r *Registry) Register(tag Tag, factory Factory) error {
	if tag == TagInvalid {
		return fmt.Errorf("%w: cannot register %s", ErrUnknownModel, tag)
	}
	if factory == nil {
		return fmt.Errorf("impel: nil factory for %s", tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: register %s", ErrRegistrySealed, tag)
	}
	if _, ok := r.factories[tag]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, tag)
	}
	r.factories[tag] = factory
	return nil
}

// Seal stops further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// CreateProcessor seals the registry and returns a new processor for tag.
func (r *Registry) CreateProcessor(tag Tag) (Processor, error) {
	r.mu.Lock()
	r.sealed = true
	fn, ok := r.factories[tag]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, tag)
	}
	p := fn()
	if p == nil {
		return nil, fmt.Errorf("%w: factory for %s returned nil", ErrUnknownModel, tag)
	}
	if p.Tag() != tag {
		return nil, fmt.Errorf("%w: factory for %s built %s", ErrModelMismatch, tag, p.Tag())
	}
	return p, nil
}

func (r *Registry) Has(tag Tag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Tags lists registered tags in ascending order.
func (r *Registry) Tags() []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]Tag, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

var defaultRegistry = NewRegistry()

// Default is the process-wide registry used by Register and CreateProcessor.
func Default() *Registry {
	return defaultRegistry
}

func Register(tag Tag, factory Factory) error {
	return defaultRegistry.Register(tag, factory)
}

func CreateProcessor(tag Tag) (Processor, error) {
	return defaultRegistry.CreateProcessor(tag)
}
