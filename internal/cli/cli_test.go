package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/jitter/pkg/config"
)

func TestConfigValidateCommand(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "jitter.yaml")
		data := `
duration_seconds: 5
report_interval_millis: 100
cpus: [0, 1]
sink_url: http://sink:8086
database: perf
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		rootCmd.SetArgs([]string{"config", "validate", path})
		assert.NoError(t, rootCmd.Execute())
	})

	t.Run("missing required fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "jitter.yaml")
		require.NoError(t, os.WriteFile(path, []byte("duration_seconds: 5\n"), 0o644))

		rootCmd.SetArgs([]string{"config", "validate", path})
		err := rootCmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sink_url")
	})

	t.Run("nonexistent file", func(t *testing.T) {
		rootCmd.SetArgs([]string{"config", "validate", filepath.Join(t.TempDir(), "nope.yaml")})
		assert.Error(t, rootCmd.Execute())
	})
}

// Any cpus shape accepted by config.Load must also survive the run
// path, which resolves the same file through viper.
func TestResolveConfigCPUForms(t *testing.T) {
	defer func() { cfgFile = "" }()

	writeConfig := func(t *testing.T, data string) {
		t.Helper()
		path := filepath.Join(t.TempDir(), "jitter.yaml")
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
		cfgFile = path
		initConfig()
	}

	t.Run("integer list", func(t *testing.T) {
		writeConfig(t, `
cpus: [0, 1]
sink_url: http://sink:8086
database: perf
`)
		cfg, err := resolveConfig()
		require.NoError(t, err)
		assert.Equal(t, config.CPUList{0, 1}, cfg.CPUs)
	})

	t.Run("range string", func(t *testing.T) {
		writeConfig(t, `
cpus: "1,4-6"
sink_url: http://sink:8086
database: perf
`)
		cfg, err := resolveConfig()
		require.NoError(t, err)
		assert.Equal(t, config.CPUList{1, 4, 5, 6}, cfg.CPUs)
	})

	t.Run("flag default when file omits cpus", func(t *testing.T) {
		writeConfig(t, `
sink_url: http://sink:8086
database: perf
`)
		cfg, err := resolveConfig()
		require.NoError(t, err)
		assert.Equal(t, config.CPUList{0}, cfg.CPUs)
	})

	t.Run("malformed range string", func(t *testing.T) {
		writeConfig(t, `
cpus: "6-4"
sink_url: http://sink:8086
database: perf
`)
		_, err := resolveConfig()
		assert.ErrorContains(t, err, "begin exceeds end")
	})
}

func TestBuildLogger(t *testing.T) {
	t.Run("default level", func(t *testing.T) {
		logLevel = "info"
		logger, err := buildLogger()
		require.NoError(t, err)
		defer logger.Sync()
		assert.NotNil(t, logger)
	})

	t.Run("invalid level", func(t *testing.T) {
		logLevel = "shouty"
		defer func() { logLevel = "info" }()

		_, err := buildLogger()
		assert.ErrorContains(t, err, "invalid log level")
	})
}
