// Package ad brackets numerical kernels for reverse-mode sensitivity
// tracking.
//
// A Tape is opened around one kernel evaluation, told which input and output
// slices matter, and closed with a replay of the kernel. The Recorder tape
// condenses each bracket into a local Jacobian (preaccumulation) that a
// reverse sweep can later propagate adjoints through. A tape is not safe for
// concurrent use; give every worker goroutine its own.
package ad

import (
	"errors"
	"fmt"
)

var (
	ErrScopeOpen   = errors.New("preaccumulation scope already open")
	ErrScopeClosed = errors.New("preaccumulation scope not open")
)

type Tape interface {
	// StartPreacc opens a recording scope. Nested scopes are rejected.
	StartPreacc() error
	// SetPreaccIn registers x as an input of the open scope. The slice is
	// held by reference until EndPreacc returns.
	SetPreaccIn(name string, x []float64)
	// SetPreaccOut registers y as an output of the open scope.
	SetPreaccOut(name string, y []float64)
	// EndPreacc closes the scope. replay must recompute every registered
	// output from the current contents of the registered inputs.
	EndPreacc(replay func()) error
}

// Slot is a named registration in a scope.
type Slot struct {
	Name   string
	Offset int // Offset into the flattened input or output vector
	Len    int
	data   []float64
}

// scope carries the registration state shared by the tape implementations.
type scope struct {
	open    bool
	err     error
	inputs  []Slot
	outputs []Slot
	nIn     int
	nOut    int
}

func (s *scope) start() error {
	if s.open {
		return ErrScopeOpen
	}
	if s.err != nil { // A registration arrived while no scope was open
		err := s.err
		s.err = nil
		return err
	}
	s.open = true
	s.inputs, s.outputs = s.inputs[:0], s.outputs[:0]
	s.nIn, s.nOut = 0, 0
	return nil
}

func (s *scope) addInput(name string, x []float64) {
	if !s.open {
		s.fail(fmt.Errorf("input %q: %w", name, ErrScopeClosed))
		return
	}
	s.inputs = append(s.inputs, Slot{Name: name, Offset: s.nIn, Len: len(x), data: x})
	s.nIn += len(x)
}

func (s *scope) addOutput(name string, y []float64) {
	if !s.open {
		s.fail(fmt.Errorf("output %q: %w", name, ErrScopeClosed))
		return
	}
	s.outputs = append(s.outputs, Slot{Name: name, Offset: s.nOut, Len: len(y), data: y})
	s.nOut += len(y)
}

func (s *scope) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// end closes the scope and reports the first registration error.
func (s *scope) end() (err error) {
	if !s.open {
		if s.err != nil {
			err = s.err
			s.err = nil
			return
		}
		return ErrScopeClosed
	}
	s.open = false
	err, s.err = s.err, nil
	return
}

func gather(slots []Slot, dst []float64) {
	for _, sl := range slots {
		copy(dst[sl.Offset:sl.Offset+sl.Len], sl.data)
	}
}

func scatter(slots []Slot, src []float64) {
	for _, sl := range slots {
		copy(sl.data, src[sl.Offset:sl.Offset+sl.Len])
	}
}

// Passive is the tape used when sensitivities are not wanted. It keeps the
// scope discipline so that a kernel behaves identically under either tape.
type Passive struct {
	s scope
}

func NewPassive() *Passive { return &Passive{} }

func (p *Passive) StartPreacc() error { return p.s.start() }

func (p *Passive) SetPreaccIn(name string, x []float64) {
	if !p.s.open {
		p.s.fail(fmt.Errorf("input %q: %w", name, ErrScopeClosed))
	}
}

func (p *Passive) SetPreaccOut(name string, y []float64) {
	if !p.s.open {
		p.s.fail(fmt.Errorf("output %q: %w", name, ErrScopeClosed))
	}
}

func (p *Passive) EndPreacc(_ func()) error { return p.s.end() }
