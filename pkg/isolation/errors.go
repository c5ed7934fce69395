package isolation

import "fmt"

// AffinityError reports a failed attempt to pin a thread to a core.
type AffinityError struct {
	Core  int
	Cause error
}

func (e *AffinityError) Error() string {
	return fmt.Sprintf("unable to set cpu affinity to core %d: %v", e.Core, e.Cause)
}

func (e *AffinityError) Unwrap() error { return e.Cause }

// MemoryLockError reports a failed mlockall request.
type MemoryLockError struct {
	Cause error
}

func (e *MemoryLockError) Error() string {
	return fmt.Sprintf("unable to lock process pages into memory: %v", e.Cause)
}

func (e *MemoryLockError) Unwrap() error { return e.Cause }

// PrivilegeError reports that the process could not obtain the I/O
// privilege level required for interrupt masking.
type PrivilegeError struct {
	Cause error
}

func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("unable to raise i/o privilege level for interrupt masking: %v", e.Cause)
}

func (e *PrivilegeError) Unwrap() error { return e.Cause }
