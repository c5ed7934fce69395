// Package sampler implements the busy-polling measurement loop. The
// loop body is allocation-free and never yields: a voluntary suspension
// would hide exactly the scheduling delays being measured.
package sampler

import "math"

const (
	nanosPerSecond = int64(1_000_000_000)
	nanosPerMilli  = int64(1_000_000)
)

// Sample is the worst inter-poll delay observed during one reporting
// window, timestamped at the moment the window closed. Unreached slots
// keep the zero Timestamp sentinel and are excluded from publication.
type Sample struct {
	Timestamp    int64 // nanoseconds, source-defined epoch
	WorstLatency int64 // nanoseconds
}

// WindowCount is the number of reporting windows that fit in the run.
// Division truncates; a final partial window is never recorded.
func WindowCount(durationSeconds, reportIntervalMillis int64) int {
	return int(durationSeconds * 1000 / reportIntervalMillis)
}

// Capture runs the measurement loop until the deadline and returns the
// pre-allocated sample sequence. It must run on a pinned OS thread; the
// only call it makes is the supplied time function.
func Capture(now func() int64, durationSeconds, reportIntervalMillis int64) []Sample {
	out := make([]Sample, WindowCount(durationSeconds, reportIntervalMillis))
	interval := reportIntervalMillis * nanosPerMilli

	previous := now()
	deadline := previous + durationSeconds*nanosPerSecond
	boundary := previous + interval

	worst := int64(math.MinInt64)
	idx := 0

	for previous < deadline {
		t := now()
		if d := t - previous; d > worst {
			worst = d
		}

		if t > boundary {
			if idx == len(out) {
				// A single stall crossed the deadline and an extra
				// window boundary; the partial window is dropped.
				break
			}
			out[idx] = Sample{Timestamp: t, WorstLatency: worst}
			idx++
			worst = math.MinInt64
			boundary += interval
			// Re-read so the bookkeeping above is not charged to the
			// next window's first delta.
			t = now()
		}

		previous = t
	}

	return out
}

// Trim drops the unreached zero-sentinel tail of a sample sequence.
func Trim(samples []Sample) []Sample {
	for i, s := range samples {
		if s.Timestamp == 0 {
			return samples[:i]
		}
	}
	return samples
}
