package impel

import (
	"fmt"
	"sync/atomic"
)

var poolIDs atomic.Uint32

type slotState uint8

const (
	slotFree slotState = iota
	slotAllocated
	slotActive
)

type poolSlot[D any] struct {
	gen   uint32
	state slotState
	data  D
}

// Pool stores instance records in reusable slots. Released slots go on a
// free list and get a new generation when reused, so handles to the old
// occupant stop resolving.
type Pool[D any] struct {
	id    uint32
	slots []poolSlot[D]
	free  []int
	live  int
}

// New allocates an uninitialized instance.
func (p *Pool[D]) New() Handle {
	if p.id == 0 {
		p.id = poolIDs.Add(1)
	}
	var idx int
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		p.slots = append(p.slots, poolSlot[D]{})
		idx = len(p.slots) - 1
	}

	s := &p.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.state = slotAllocated
	p.live++
	return Handle{owner: p.id, index: idx, gen: s.gen}
}

func (p *Pool[D]) slot(h Handle) (*poolSlot[D], error) {
	if h.gen == 0 || h.owner != p.id || h.index < 0 || h.index >= len(p.slots) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandle, h)
	}
	s := &p.slots[h.index]
	if s.gen != h.gen || s.state == slotFree {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandle, h)
	}
	return s, nil
}

// Remove releases the instance; its slot may be reused by a later New.
func (p *Pool[D]) Remove(h Handle) error {
	s, err := p.slot(h)
	if err != nil {
		return err
	}
	var zero D
	s.data = zero
	s.state = slotFree
	p.free = append(p.free, h.index)
	p.live--
	return nil
}

// Get returns the record of an initialized instance.
func (p *Pool[D]) Get(h Handle) (*D, error) {
	s, err := p.slot(h)
	if err != nil {
		return nil, err
	}
	if s.state != slotActive {
		return nil, fmt.Errorf("%w: %v", ErrUninitialized, h)
	}
	return &s.data, nil
}

// Activate stores data for h and marks it initialized.
func (p *Pool[D]) Activate(h Handle, data D) error {
	s, err := p.slot(h)
	if err != nil {
		return err
	}
	s.data = data
	s.state = slotActive
	return nil
}

// Initialized reports whether h is live and initialized.
func (p *Pool[D]) Initialized(h Handle) bool {
	s, err := p.slot(h)
	return err == nil && s.state == slotActive
}

// Len is the number of live instances, initialized or not.
func (p *Pool[D]) Len() int {
	return p.live
}

// Slots is the number of slots, live or free. Iterate 0..Slots with ActiveAt.
func (p *Pool[D]) Slots() int {
	return len(p.slots)
}

// ActiveAt returns the record in slot i, or nil if it is not initialized.
func (p *Pool[D]) ActiveAt(i int) *D {
	s := &p.slots[i]
	if s.state != slotActive {
		return nil
	}
	return &s.data
}
