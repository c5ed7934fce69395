package pipeline

import (
	"sync/atomic"
	"time"
)

// RunStats tracks run-wide counters across pipelines. Counters are
// atomic so concurrently completing pipelines can update them without
// coordination.
type RunStats struct {
	startTime       time.Time
	windowsRecorded atomic.Int64
	batchesFlushed  atomic.Int64
	publishFailures atomic.Int64
	coresFailed     atomic.Int64
}

// NewRunStats creates a RunStats anchored at the current time.
func NewRunStats() *RunStats {
	return &RunStats{startTime: time.Now()}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	WindowsRecorded int64
	BatchesFlushed  int64
	PublishFailures int64
	CoresFailed     int64
	Uptime          time.Duration
}

// Snapshot reads the counters.
func (s *RunStats) Snapshot() Snapshot {
	return Snapshot{
		WindowsRecorded: s.windowsRecorded.Load(),
		BatchesFlushed:  s.batchesFlushed.Load(),
		PublishFailures: s.publishFailures.Load(),
		CoresFailed:     s.coresFailed.Load(),
		Uptime:          time.Since(s.startTime),
	}
}
