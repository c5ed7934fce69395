// Package pipeline runs one independent sampling pipeline per
// configured core, fully in parallel, and collects a per-core result.
package pipeline

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yairfalse/jitter/pkg/clock"
	"github.com/yairfalse/jitter/pkg/config"
	"github.com/yairfalse/jitter/pkg/publisher"
	"github.com/yairfalse/jitter/pkg/sampler"
)

// Isolator is the slice of the isolation controller a pipeline uses on
// its own pinned thread. Memory locking and the startup privilege check
// happen before any pipeline exists.
type Isolator interface {
	Pin(core int) error
	RaisePrivilege() error
	MaskInterrupts()
	UnmaskInterrupts()
}

// SamplePublisher ships one core's published samples to the sink.
type SamplePublisher interface {
	Publish(core int, samples []sampler.Sample) publisher.Stats
}

// Result is the outcome of one core's pipeline. A failed pipeline never
// stops its siblings; the caller inspects every Result individually.
type Result struct {
	Core      int
	Published int
	Batches   int
	Failures  int
	Elapsed   time.Duration
	Err       error
}

// Runner owns the per-core pipelines of one run. Everything it shares
// with them (config, clock source) is read-only once Run starts.
type Runner struct {
	cfg       *config.Config
	source    clock.Source
	isolator  Isolator
	publisher SamplePublisher
	logger    *zap.Logger
	stats     *RunStats

	// runCore is swapped out by tests to observe orchestration alone.
	runCore func(core int) Result
}

// NewRunner wires a Runner from already-calibrated components.
func NewRunner(cfg *config.Config, source clock.Source, isolator Isolator, pub SamplePublisher, logger *zap.Logger) *Runner {
	r := &Runner{
		cfg:       cfg,
		source:    source,
		isolator:  isolator,
		publisher: pub,
		logger:    logger,
		stats:     NewRunStats(),
	}
	r.runCore = r.captureCore
	return r
}

// Stats exposes the run-wide counters the pipelines update.
func (r *Runner) Stats() *RunStats { return r.stats }

// Run starts one pipeline per configured core and blocks until every
// pipeline has completed or aborted. Results are ordered like the
// configured core list.
func (r *Runner) Run() []Result {
	results := make([]Result, len(r.cfg.CPUs))

	var wg sync.WaitGroup
	for i, core := range r.cfg.CPUs {
		wg.Add(1)
		go func(i, core int) {
			defer wg.Done()
			results[i] = r.runCore(core)
		}(i, core)
	}
	wg.Wait()

	return results
}

// captureCore is the full pipeline for one core: lock the OS thread,
// pin, optionally mask interrupts, measure, publish. Interrupts are
// unmasked on the way out, whether the measurement finished or not.
func (r *Runner) captureCore(core int) (res Result) {
	start := time.Now()
	res.Core = core
	defer func() {
		res.Elapsed = time.Since(start)
		if rec := recover(); rec != nil {
			// A failing time source aborts this pipeline only.
			res.Err = fmt.Errorf("pipeline aborted on core %d: %v", core, rec)
		}
		if res.Err != nil {
			r.stats.coresFailed.Add(1)
		}
	}()

	// The goroutine stays locked until it exits, so the thread and its
	// raised privilege level are discarded rather than returned to the
	// scheduler pool.
	runtime.LockOSThread()

	if err := r.isolator.Pin(core); err != nil {
		res.Err = err
		return res
	}

	if r.cfg.MaskInterrupts {
		if err := r.isolator.RaisePrivilege(); err != nil {
			res.Err = err
			return res
		}
		r.logger.Warn("masking interrupts; this core stops servicing timers and i/o until the run ends",
			zap.Int("core", core))
		r.isolator.MaskInterrupts()
		// The unmask must survive a time-source panic, or this core is
		// left deaf to interrupts while its siblings keep running.
		defer func() {
			r.isolator.UnmaskInterrupts()
			r.logger.Info("re-enabled interrupts", zap.Int("core", core))
		}()
	}

	samples := sampler.Capture(r.source.Now, r.cfg.DurationSeconds, r.cfg.ReportIntervalMillis)

	published := sampler.Trim(samples)
	stats := r.publisher.Publish(core, published)

	res.Published = len(published)
	res.Batches = stats.Batches
	res.Failures = stats.Failures

	r.stats.windowsRecorded.Add(int64(res.Published))
	r.stats.batchesFlushed.Add(int64(res.Batches))
	r.stats.publishFailures.Add(int64(res.Failures))

	return res
}

// Failed summarizes the failed results into a single error, or nil when
// every pipeline succeeded.
func Failed(results []Result) error {
	var failed []string
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, fmt.Sprintf("%d", res.Core))
			errs = append(errs, res.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("sampling failed on core(s) %s: %w", strings.Join(failed, ","), errors.Join(errs...))
}
