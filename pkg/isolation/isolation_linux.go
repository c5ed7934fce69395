//go:build linux

package isolation

import "golang.org/x/sys/unix"

func setAffinity(core int) error {
	if core < 0 {
		return unix.EINVAL
	}
	// CPUSet.Set ignores out-of-range cores, leaving the set empty; the
	// kernel then rejects the call with EINVAL.
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}

func lockMemory() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}
