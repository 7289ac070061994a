package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/psim/internal/sim"
	"github.com/san-kum/psim/internal/telemetry"
)

var (
	dataDir  string
	logLevel string
	logDev   bool

	logger = zap.NewNop()
)

// main registers the commands and exits with the code of any domain error
// the command returns, or 1 for anything else.
func main() {
	rootCmd := &cobra.Command{
		Use:           "psim",
		Short:         "colloidal particle simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := telemetry.NewLogger(logLevel, logDev)
			if err != nil {
				return fmt.Errorf("%v: %w", err, sim.ErrInput)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "data", "trial directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logDev, "log-dev", true, "human readable console logs instead of JSON")

	rootCmd.AddCommand(
		newRunCmd(),
		newResumeCmd(),
		newAnalyzeCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newPresetsCmd(),
		newForcesCmd(),
		newBatchCmd(),
		newSweepCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		code := sim.Code(err)
		if code == 0 {
			code = 1
		}
		fmt.Fprintf(os.Stderr, "error (%d): %v\n", code, err)
		os.Exit(code)
	}
}
