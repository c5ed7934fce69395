package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "jitter",
	Short: "Platform jitter sampler",
	Long: `jitter measures operating-system and hardware-induced execution jitter.

It pins a busy-polling thread to each selected cpu, records the worst
delay between consecutive time reads per reporting window, and publishes
the resulting time series to a line-protocol sink once the run ends.`,
	Example: `  # 10s run on cpu 0, reporting every 100ms
  jitter --sink-url http://influx:8086 --database perf

  # 60s run on isolated cpus with memory locked
  jitter -d 60 -c 2,4-7 --mlock --sink-url http://influx:8086 --database perf

  # TSC time source on a 3GHz part, interrupts masked (needs root)
  sudo jitter -t hardware-counter -f 3.0 --mask-interrupts -c 3 \
      --sink-url http://influx:8086 --database perf`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSampling,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	flags := rootCmd.Flags()
	flags.Int64P("duration", "d", 10, "how long to keep sampling, in seconds")
	flags.Int64P("report-interval", "r", 100, "reporting window length, in milliseconds")
	flags.StringP("cpus", "c", "0", "cpus to sample; singles and inclusive ranges, eg '1,4-6,8-12,15'")
	flags.BoolP("mlock", "m", false, "lock all process pages into memory")
	flags.Bool("mask-interrupts", false, "disable maskable interrupts on sampled cpus (requires superuser; the machine may become unresponsive)")
	flags.Float64P("tsc-frequency", "f", 0, "hardware counter frequency in GHz; required with -t hardware-counter")
	flags.StringP("time-source", "t", "wall-clock", "time source: wall-clock | monotonic-clock | hardware-counter")
	flags.StringP("sink-url", "u", "", "line-protocol sink base url, eg http://influx:8086")
	flags.StringP("database", "b", "", "sink dataset name")
	flags.String("hostname", "", "host tag for published records (default: os hostname)")

	viper.BindPFlag("duration_seconds", flags.Lookup("duration"))
	viper.BindPFlag("report_interval_millis", flags.Lookup("report-interval"))
	viper.BindPFlag("cpus", flags.Lookup("cpus"))
	viper.BindPFlag("lock_memory", flags.Lookup("mlock"))
	viper.BindPFlag("mask_interrupts", flags.Lookup("mask-interrupts"))
	viper.BindPFlag("tsc_frequency_ghz", flags.Lookup("tsc-frequency"))
	viper.BindPFlag("time_source", flags.Lookup("time-source"))
	viper.BindPFlag("sink_url", flags.Lookup("sink-url"))
	viper.BindPFlag("database", flags.Lookup("database"))
	viper.BindPFlag("hostname", flags.Lookup("hostname"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetEnvPrefix("JITTER")
	viper.AutomaticEnv()

	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// buildLogger creates the process logger. Debug level switches to the
// development config for readable console output.
func buildLogger() (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	if logLevel == "debug" {
		logConfig = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logConfig.Level = level
	return logConfig.Build()
}
