// Command fgdefs loads a functional group definitions file and serves or
// inspects it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fgdefs/internal/config"
	"fgdefs/internal/engine"
	"fgdefs/internal/logging"
)

// app carries state shared by every subcommand once the root pre-run has resolved it.
type app struct {
	configPath string
	file       string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fgdefs",
		Short: "Functional group definitions indexer",
		Long: `fgdefs loads a functional group definitions table (DEFINITION_*, PROPERTY_*
and NOTES_* columns) into an immutable in-memory index and answers queries
over it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.file != "" {
				cfg.Definitions.Path = a.file
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
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to YAML config (defaults apply when empty)")
	root.PersistentFlags().StringVarP(&a.file, "file", "f", "", "Definitions file, overrides the configured location")

	root.AddCommand(newServeCmd(a), newInspectCmd(a), newArchiveCmd(a))
	return root
}

func (a *app) source() engine.TabularDataSource {
	return engine.NewCSVSource(engine.WithComma(a.cfg.Comma()))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
