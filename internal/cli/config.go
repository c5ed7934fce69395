package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yairfalse/jitter/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect jitter configuration files",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a configuration file",
	Long: `Validate checks a YAML or JSON configuration file the same way the
sampler does at startup: syntax, required fields and value ranges.

Warnings (for example a report interval that does not evenly divide the
run duration) are printed but do not fail validation.`,
	Example: `  jitter config validate ./jitter.yaml`,
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	verrs := cfg.Validate()
	for _, warn := range verrs.Warnings() {
		fmt.Printf("warning: %s: %s\n", warn.Field, warn.Message)
	}
	if verrs.HasErrors() {
		return verrs
	}

	fmt.Printf("%s is valid: %d cpu(s), %d window(s) per cpu\n",
		args[0], len(cfg.CPUs), cfg.WindowsPerCore())
	return nil
}
