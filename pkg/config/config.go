// Package config holds the run configuration shared read-only by every
// sampling pipeline, along with its validation and file loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yairfalse/jitter/pkg/clock"
)

// Config is the resolved run configuration. It is constructed once
// before any sampling starts and never mutated afterwards.
type Config struct {
	// DurationSeconds is how long each core samples for.
	DurationSeconds int64 `yaml:"duration_seconds" json:"duration_seconds"`

	// ReportIntervalMillis is the reporting window length.
	ReportIntervalMillis int64 `yaml:"report_interval_millis" json:"report_interval_millis"`

	// CPUs are the logical processors to sample, in the order given.
	// Duplicates are kept as written. Config files may supply either a
	// list of integers or the CLI range string.
	CPUs CPUList `yaml:"cpus" json:"cpus"`

	// TimeSource selects the clock: wall-clock, monotonic-clock or
	// hardware-counter.
	TimeSource string `yaml:"time_source" json:"time_source"`

	// TSCFrequencyGHz is the hardware counter frequency in GHz. Required
	// only for the hardware-counter time source.
	TSCFrequencyGHz float64 `yaml:"tsc_frequency_ghz" json:"tsc_frequency_ghz"`

	// LockMemory mlocks all current and future process pages.
	LockMemory bool `yaml:"lock_memory" json:"lock_memory"`

	// MaskInterrupts disables maskable interrupts on each sampled core
	// for the duration of its measurement loop. Requires superuser
	// privileges and can make the machine unresponsive.
	MaskInterrupts bool `yaml:"mask_interrupts" json:"mask_interrupts"`

	// SinkURL is the base URL of the line-protocol sink, eg
	// http://influx.example.com:8086.
	SinkURL string `yaml:"sink_url" json:"sink_url"`

	// Database is the sink dataset name.
	Database string `yaml:"database" json:"database"`

	// Hostname tags every published record. Defaults to os.Hostname.
	Hostname string `yaml:"hostname" json:"hostname"`
}

// Default returns a Config with the same defaults the CLI advertises.
// SinkURL and Database have no defaults and must be supplied.
func Default() *Config {
	return &Config{
		DurationSeconds:      10,
		ReportIntervalMillis: 100,
		CPUs:                 []int{0},
		TimeSource:           string(clock.WallClock),
	}
}

// Load reads a Config from a YAML or JSON file, chosen by extension,
// and fills unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		// Try YAML first, then JSON.
		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			err = json.Unmarshal(data, cfg)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.DurationSeconds == 0 {
		c.DurationSeconds = def.DurationSeconds
	}
	if c.ReportIntervalMillis == 0 {
		c.ReportIntervalMillis = def.ReportIntervalMillis
	}
	if len(c.CPUs) == 0 {
		c.CPUs = def.CPUs
	}
	if c.TimeSource == "" {
		c.TimeSource = def.TimeSource
	}
	if c.Hostname == "" {
		if host, err := os.Hostname(); err == nil {
			c.Hostname = host
		}
	}
}

// WindowsPerCore is the number of reporting windows each core's sample
// buffer holds. Division truncates: a final partial window is dropped.
func (c *Config) WindowsPerCore() int {
	if c.ReportIntervalMillis <= 0 {
		return 0
	}
	return int(c.DurationSeconds * 1000 / c.ReportIntervalMillis)
}

// Validate checks the configuration. Entries flagged as warnings do
// not block the run.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.DurationSeconds <= 0 {
		errs.add("duration_seconds", "must be positive", false)
	}
	if c.ReportIntervalMillis <= 0 {
		errs.add("report_interval_millis", "must be positive", false)
	}
	if c.DurationSeconds > 0 && c.ReportIntervalMillis > 0 {
		if c.ReportIntervalMillis > c.DurationSeconds*1000 {
			errs.add("report_interval_millis", "exceeds the run duration; no window would complete", false)
		} else if c.DurationSeconds*1000%c.ReportIntervalMillis != 0 {
			errs.add("report_interval_millis", "does not evenly divide the run duration; the final partial window will be dropped", true)
		}
	}

	if len(c.CPUs) == 0 {
		errs.add("cpus", "at least one target cpu is required", false)
	}
	for _, cpu := range c.CPUs {
		if cpu < 0 {
			errs.add("cpus", fmt.Sprintf("invalid cpu %d: identifiers are non-negative", cpu), false)
			break
		}
	}

	switch clock.Kind(c.TimeSource) {
	case clock.WallClock, clock.MonotonicClock:
	case clock.HardwareCounter:
		if c.TSCFrequencyGHz <= 0 {
			errs.add("tsc_frequency_ghz", "required for the hardware-counter time source", false)
		}
	default:
		errs.add("time_source", fmt.Sprintf("unrecognized time source %q (valid: %v)", c.TimeSource, clock.Kinds()), false)
	}

	if c.SinkURL == "" {
		errs.add("sink_url", "sink url is required", false)
	}
	if c.Database == "" {
		errs.add("database", "dataset name is required", false)
	}

	return errs
}
