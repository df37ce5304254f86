// Command pabench builds partial assembly operators on a Cartesian mesh and
// times their setup and application.
package main

import (
	"fmt"
	"os"

	"github.com/notargets/PAKernel/device"
	"github.com/notargets/PAKernel/device/occa"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "pabench",
	Short:        "Time partial assembly operators and batched dense solves",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log setup phases at debug level")
	rootCmd.AddCommand(newRunCmd(), newLUCmd())
}

// openBackend selects the host backend or an OCCA device by mode name
func openBackend(mode string, workers int) (device.Backend, error) {
	cfg := device.Config{
		Mode:    mode,
		Workers: workers,
		Logger:  logger,
	}
	if verbose {
		cfg.Tracer = device.NewZapTracer(logger)
	}
	if mode == "" || mode == device.ModeHost {
		return device.NewHost(cfg), nil
	}
	return occa.Open(fmt.Sprintf(`{"mode": %q}`, mode), cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
