package clock

import "golang.org/x/sys/unix"

// wallNow reads CLOCK_REALTIME in nanoseconds. This is the reference
// source every other kind is calibrated against.
func wallNow() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		panic("clock_gettime(CLOCK_REALTIME): " + err.Error())
	}
	return ts.Nano()
}

// monotonicNow reads CLOCK_MONOTONIC in nanoseconds, uncalibrated.
func monotonicNow() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		panic("clock_gettime(CLOCK_MONOTONIC): " + err.Error())
	}
	return ts.Nano()
}
