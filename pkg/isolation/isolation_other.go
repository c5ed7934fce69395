//go:build !linux

package isolation

import (
	"fmt"
	"runtime"
)

func setAffinity(core int) error {
	return fmt.Errorf("cpu affinity is not supported on %s", runtime.GOOS)
}

func lockMemory() error {
	return fmt.Errorf("memory locking is not supported on %s", runtime.GOOS)
}
