// Package commands wires the CLI surface of the statement engine.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-engine/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:   "statement-engine",
		Short: "Parse bank statement PDFs into reconciled transaction data",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "dialect configuration YAML (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	deps := &dependencies{configPath: &configPath, verbose: &verbose}

	rootCmd.AddCommand(newConvertCommand(deps))
	rootCmd.AddCommand(newDetectCommand(deps))
	rootCmd.AddCommand(newServeCommand(deps))

	return rootCmd
}

// dependencies defers config and logger construction until a subcommand
// actually runs, so flag values are in effect.
type dependencies struct {
	configPath *string
	verbose    *bool
}

func (d *dependencies) dialects() (map[string]config.Dialect, error) {
	if *d.configPath == "" {
		return config.Defaults(), nil
	}
	return config.Load(*d.configPath)
}

func (d *dependencies) logger() (*zap.Logger, error) {
	if *d.verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
