//go:build amd64

package hw

// NativeCounter returns the TSC-backed cycle counter.
func NativeCounter() (CycleCounter, error) {
	return tscCounter{}, nil
}

// NativeGate returns the interrupt gate backed by the cli/sti
// instructions. Executing either instruction faults unless the thread
// holds I/O privilege level 3.
func NativeGate() (InterruptGate, error) {
	return irqGate{}, nil
}

type tscCounter struct{}

func (tscCounter) Cycles() int64 { return rdtsc() }

type irqGate struct{}

func (irqGate) Mask()   { irqDisable() }
func (irqGate) Unmask() { irqEnable() }

// Implemented in native_amd64.s.
func rdtsc() int64
func irqDisable()
func irqEnable()
