// Package hw exposes the architecture-specific primitives the sampler
// depends on: the free-running cycle counter and the processor interrupt
// gate. Real implementations exist per architecture; scripted fakes let
// the rest of the tree be tested without privileged hardware access.
package hw

import "errors"

// ErrUnsupportedArch is returned when the running architecture has no
// native implementation of a hardware capability.
var ErrUnsupportedArch = errors.New("hardware capability not supported on this architecture")

// CycleCounter reads a free-running hardware cycle counter.
type CycleCounter interface {
	Cycles() int64
}

// InterruptGate disables and re-enables maskable interrupt delivery on
// the calling processor. Both calls require the caller to already hold
// the necessary I/O privilege level.
type InterruptGate interface {
	Mask()
	Unmask()
}

// CounterFunc adapts a plain function to the CycleCounter interface.
type CounterFunc func() int64

func (f CounterFunc) Cycles() int64 { return f() }

// Scripted is a CycleCounter for tests. It replays a fixed sequence of
// readings and repeats the final reading once the sequence is exhausted.
type Scripted struct {
	Readings []int64
	pos      int
}

func (s *Scripted) Cycles() int64 {
	if len(s.Readings) == 0 {
		return 0
	}
	if s.pos >= len(s.Readings) {
		return s.Readings[len(s.Readings)-1]
	}
	v := s.Readings[s.pos]
	s.pos++
	return v
}

// RecordingGate is an InterruptGate for tests that counts transitions.
type RecordingGate struct {
	MaskCalls   int
	UnmaskCalls int
}

func (g *RecordingGate) Mask()   { g.MaskCalls++ }
func (g *RecordingGate) Unmask() { g.UnmaskCalls++ }
