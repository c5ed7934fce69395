package clock

import (
	"errors"
	"fmt"
)

// ErrMissingFrequency is returned when the hardware counter source is
// selected without a usable frequency.
var ErrMissingFrequency = errors.New("hardware-counter time source requires a counter frequency")

// UnsupportedSourceError reports an unrecognized time source identifier.
type UnsupportedSourceError struct {
	Kind Kind
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported time source %q (valid: %v)", string(e.Kind), Kinds())
}
