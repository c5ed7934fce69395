package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yairfalse/jitter/pkg/clock"
	"github.com/yairfalse/jitter/pkg/config"
	"github.com/yairfalse/jitter/pkg/hw"
	"github.com/yairfalse/jitter/pkg/isolation"
	"github.com/yairfalse/jitter/pkg/pipeline"
	"github.com/yairfalse/jitter/pkg/publisher"
)

// runSampling is the root command: resolve configuration, perform the
// startup-fatal setup (privilege, memory lock, calibration), then run
// one pipeline per core and report per-core outcomes.
func runSampling(cmd *cobra.Command, args []string) error {
	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	verrs := cfg.Validate()
	for _, warn := range verrs.Warnings() {
		logger.Warn("configuration warning", zap.String("field", warn.Field), zap.String("reason", warn.Message))
	}
	if verrs.HasErrors() {
		return verrs
	}

	logger = logger.With(zap.String("run_id", uuid.New().String()))
	logger.Info("starting jitter run",
		zap.Int64("duration_seconds", cfg.DurationSeconds),
		zap.Int64("report_interval_millis", cfg.ReportIntervalMillis),
		zap.Ints("cpus", cfg.CPUs),
		zap.String("time_source", cfg.TimeSource),
		zap.Bool("lock_memory", cfg.LockMemory),
		zap.Bool("mask_interrupts", cfg.MaskInterrupts),
		zap.String("sink_url", cfg.SinkURL),
		zap.String("database", cfg.Database),
		zap.String("hostname", cfg.Hostname),
	)

	var gate hw.InterruptGate
	if cfg.MaskInterrupts {
		if gate, err = hw.NativeGate(); err != nil {
			return fmt.Errorf("interrupt masking requested: %w", err)
		}
	}
	isolator := isolation.New(logger, gate)

	// Startup-fatal preconditions, checked before any core-specific work.
	if cfg.MaskInterrupts {
		if err := isolator.RaisePrivilege(); err != nil {
			return err
		}
	}
	if cfg.LockMemory {
		if err := isolator.LockMemory(); err != nil {
			return err
		}
	}

	source, err := setupClock(cfg, logger)
	if err != nil {
		return err
	}

	pub := publisher.New(logger, cfg.SinkURL, cfg.Database, cfg.Hostname)
	runner := pipeline.NewRunner(cfg, source, isolator, pub, logger)

	results := runner.Run()
	for _, res := range results {
		if res.Err != nil {
			logger.Error("core pipeline failed",
				zap.Int("core", res.Core),
				zap.Duration("elapsed", res.Elapsed),
				zap.Error(res.Err),
			)
			continue
		}
		logger.Info("core pipeline complete",
			zap.Int("core", res.Core),
			zap.Int("windows", res.Published),
			zap.Int("batches", res.Batches),
			zap.Int("failed_batches", res.Failures),
			zap.Duration("elapsed", res.Elapsed),
		)
	}

	snap := runner.Stats().Snapshot()
	logger.Info("run complete",
		zap.Int64("windows_recorded", snap.WindowsRecorded),
		zap.Int64("batches_flushed", snap.BatchesFlushed),
		zap.Int64("publish_failures", snap.PublishFailures),
		zap.Int64("cores_failed", snap.CoresFailed),
		zap.Duration("uptime", snap.Uptime),
	)

	return pipeline.Failed(results)
}

// resolveConfig merges flags, JITTER_* environment variables and the
// optional config file, in that precedence order.
func resolveConfig() (*config.Config, error) {
	cpus, err := resolveCPUs()
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{
		DurationSeconds:      viper.GetInt64("duration_seconds"),
		ReportIntervalMillis: viper.GetInt64("report_interval_millis"),
		CPUs:                 cpus,
		TimeSource:           viper.GetString("time_source"),
		TSCFrequencyGHz:      viper.GetFloat64("tsc_frequency_ghz"),
		LockMemory:           viper.GetBool("lock_memory"),
		MaskInterrupts:       viper.GetBool("mask_interrupts"),
		SinkURL:              viper.GetString("sink_url"),
		Database:             viper.GetString("database"),
		Hostname:             viper.GetString("hostname"),
	}
	if cfg.Hostname == "" {
		cfg.Hostname = hostnameOrEmpty()
	}
	return cfg, nil
}

// resolveCPUs accepts the cpu set in both shapes a config source can
// carry: the CLI/env range string ("1,4-6") or a config-file list of
// integers. Both shapes are also accepted by config.Load, so a file
// that passes `jitter config validate` runs unchanged.
func resolveCPUs() ([]int, error) {
	if s, ok := viper.Get("cpus").(string); ok {
		return config.ParseCPUList(s)
	}
	return viper.GetIntSlice("cpus"), nil
}

func hostnameOrEmpty() string {
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

// setupClock calibrates the selected time source. Calibration runs
// exactly once, before any pipeline starts, and the resulting value is
// immutable for the rest of the run.
func setupClock(cfg *config.Config, logger *zap.Logger) (clock.Source, error) {
	kind := clock.Kind(cfg.TimeSource)

	var counter hw.CycleCounter
	if kind == clock.HardwareCounter {
		var err error
		if counter, err = hw.NativeCounter(); err != nil {
			return nil, fmt.Errorf("hardware-counter time source: %w", err)
		}
	}

	cal, err := clock.Calibrate(kind, cfg.TSCFrequencyGHz, counter)
	if err != nil {
		return nil, err
	}
	if kind != clock.WallClock {
		logger.Info("calibrated time source",
			zap.String("time_source", cfg.TimeSource),
			zap.Int64("offset_ns", cal.Offset),
			zap.Float64("frequency_ghz", cal.Frequency),
		)
	}

	return clock.New(kind, cal, counter)
}
