// Package clock resolves a configured time source to a nanosecond
// timestamp function and performs the one-time calibration that makes
// secondary sources comparable to the wall clock.
package clock

import (
	"math"

	"github.com/yairfalse/jitter/pkg/hw"
)

// Kind identifies a time source.
type Kind string

const (
	WallClock       Kind = "wall-clock"
	MonotonicClock  Kind = "monotonic-clock"
	HardwareCounter Kind = "hardware-counter"
)

// Kinds lists every recognized time source identifier.
func Kinds() []Kind {
	return []Kind{WallClock, MonotonicClock, HardwareCounter}
}

// Source produces the current time in nanoseconds. The epoch is
// source-defined; after calibration all kinds are comparable to the
// wall clock.
type Source interface {
	Now() int64
}

// Calibration aligns a secondary time source with the wall clock. It is
// computed once at startup and read-only for the rest of the run, so
// pipelines can share it without synchronization.
type Calibration struct {
	// Offset is added to the raw source reading, in nanoseconds.
	Offset int64
	// Frequency is the hardware counter frequency in GHz (cycles per
	// nanosecond). Zero for kinds that do not use a cycle counter.
	Frequency float64
}

// calibrationIterations is the number of offset samples taken for the
// hardware counter. The minimum over this many samples filters out
// scheduling noise that hits individual samples.
const calibrationIterations = 100_000

// Calibrate computes the Calibration for the given kind. For
// HardwareCounter a counter must be supplied (use hw.NativeCounter for
// the real one) along with its frequency in GHz.
func Calibrate(kind Kind, frequencyGHz float64, counter hw.CycleCounter) (Calibration, error) {
	return calibrate(kind, frequencyGHz, counter, wallNow, monotonicNow, calibrationIterations)
}

func calibrate(kind Kind, frequencyGHz float64, counter hw.CycleCounter, wall, monotonic func() int64, iterations int) (Calibration, error) {
	switch kind {
	case WallClock:
		return Calibration{}, nil
	case MonotonicClock:
		return Calibration{Offset: wall() - monotonic()}, nil
	case HardwareCounter:
		if frequencyGHz <= 0 {
			return Calibration{}, ErrMissingFrequency
		}
		// The counter is read before the wall clock so that a stall
		// between the two reads can only inflate the difference; the
		// minimum therefore converges on the true offset.
		offset := int64(math.MaxInt64)
		for i := 0; i < iterations; i++ {
			c := counterNanos(counter, frequencyGHz)
			w := wall()
			if d := w - c; d < offset {
				offset = d
			}
		}
		return Calibration{Offset: offset, Frequency: frequencyGHz}, nil
	default:
		return Calibration{}, &UnsupportedSourceError{Kind: kind}
	}
}

// New builds the Source for the given kind using a previously computed
// Calibration. The counter argument is only consulted for
// HardwareCounter and must be the same counter the calibration ran
// against.
func New(kind Kind, cal Calibration, counter hw.CycleCounter) (Source, error) {
	switch kind {
	case WallClock:
		return wallSource{}, nil
	case MonotonicClock:
		return &offsetSource{read: monotonicNow, offset: cal.Offset}, nil
	case HardwareCounter:
		if cal.Frequency <= 0 {
			return nil, ErrMissingFrequency
		}
		return &counterSource{counter: counter, frequency: cal.Frequency, offset: cal.Offset}, nil
	default:
		return nil, &UnsupportedSourceError{Kind: kind}
	}
}

func counterNanos(counter hw.CycleCounter, frequencyGHz float64) int64 {
	return int64(float64(counter.Cycles()) / frequencyGHz)
}

type wallSource struct{}

func (wallSource) Now() int64 { return wallNow() }

type offsetSource struct {
	read   func() int64
	offset int64
}

func (s *offsetSource) Now() int64 { return s.read() + s.offset }

type counterSource struct {
	counter   hw.CycleCounter
	frequency float64
	offset    int64
}

func (s *counterSource) Now() int64 {
	return counterNanos(s.counter, s.frequency) + s.offset
}
