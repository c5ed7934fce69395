// Package isolation makes a measurement thread trustworthy: cpu
// pinning, memory locking, privilege raising and interrupt masking.
// Every operation is fatal on failure; there is no degraded mode.
package isolation

import (
	"go.uber.org/zap"

	"github.com/yairfalse/jitter/pkg/hw"
)

// Controller performs the isolation operations for one process. It is
// stateless apart from its logger and interrupt gate and is shared by
// all per-core pipelines.
type Controller struct {
	logger *zap.Logger
	gate   hw.InterruptGate
}

// New creates a Controller. The gate may be nil when interrupt masking
// is not requested; Mask and Unmask are then no-ops.
func New(logger *zap.Logger, gate hw.InterruptGate) *Controller {
	return &Controller{logger: logger, gate: gate}
}

// Pin restricts the calling thread to a single logical processor. The
// caller must have locked the goroutine to its OS thread.
func (c *Controller) Pin(core int) error {
	if err := setAffinity(core); err != nil {
		return &AffinityError{Core: core, Cause: err}
	}
	c.logger.Info("pinned sampler thread", zap.Int("core", core))
	return nil
}

// LockMemory requests that all current and future process pages stay
// resident, so page faults cannot pollute the measurement.
func (c *Controller) LockMemory() error {
	if err := lockMemory(); err != nil {
		return &MemoryLockError{Cause: err}
	}
	c.logger.Info("locked process pages into memory")
	return nil
}

// RaisePrivilege obtains the I/O privilege level needed to mask
// interrupts. The privilege is per-thread, so this runs once at startup
// to fail fast and again on each pinned sampler thread.
func (c *Controller) RaisePrivilege() error {
	if err := raisePrivilege(); err != nil {
		return &PrivilegeError{Cause: err}
	}
	return nil
}

// MaskInterrupts stops maskable interrupt delivery on the calling
// processor. Timers, preemption and I/O completion on that core stop
// with it until UnmaskInterrupts runs.
func (c *Controller) MaskInterrupts() {
	if c.gate != nil {
		c.gate.Mask()
	}
}

// UnmaskInterrupts restores interrupt delivery on the calling processor.
func (c *Controller) UnmaskInterrupts() {
	if c.gate != nil {
		c.gate.Unmask()
	}
}
