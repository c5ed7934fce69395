//go:build !amd64

package hw

func NativeCounter() (CycleCounter, error) {
	return nil, ErrUnsupportedArch
}

func NativeGate() (InterruptGate, error) {
	return nil, ErrUnsupportedArch
}
