// Command datafixer migrates saved documents to the current data version.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	df "github.com/reoring/datafixer"
	"github.com/reoring/datafixer/fixes"
	"github.com/reoring/datafixer/internal/config"
	"github.com/reoring/datafixer/internal/logging"
)

// app carries what every subcommand shares once the root has run.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "datafixer",
		Short: "Migrate versioned save documents",
		Long: `datafixer upgrades JSON and YAML save documents through the registered
chain of fixes, from the version stamped on each document up to the target.

Documents without a stamp are assumed to be at the baseline version.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(a.migrateCmd())
	root.AddCommand(a.fixesCmd())
	root.AddCommand(a.schemaCmd())
	return root
}

// fixer builds the catalog with the configured versions.
func (a *app) fixer() (*df.Fixer, error) {
	f, err := fixes.New(
		df.WithBaselineVersion(a.cfg.BaselineVersion),
		df.WithTargetVersion(a.cfg.TargetVersion),
		df.WithVersionKey(a.cfg.VersionKey),
		df.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build fixer: %w", err)
	}
	return f, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
