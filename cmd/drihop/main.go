// Command drihop blends the map units of a geologic map database with a
// hillshade into a color composite image.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/askiada/drihop/internal/relief"
)

type options struct {
	verbose bool
	symbols string
	workers int
	graph   string
	measure bool
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return config.Build()
}

func newRootCmd(newLog func(verbose bool) (*zap.Logger, error)) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "drihop [flags] HILLSHADE DATABASE DIAGNOSTIC STRETCH MEAN FLOOR MULTIPLIER FORCEFAIL",
		Short: "Direct relief integration for geologic maps",
		Long: `drihop colors the map units of a GeoPackage geologic map database from their
symbol codes, rasterizes them on the grid of a hillshade, blends them with the
stretched hillshade and writes <database>_rgbComposite.png with a .pgw sidecar
beside the database.

DIAGNOSTIC and FORCEFAIL are set by the literal "true". A diagnostic run only
reports the hillshade statistics. Flags go before the positional arguments,
so that a negative STRETCH is not read as a flag.`,
		Args:          cobra.ExactArgs(relief.Args),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := relief.ParseArgs(args)
			if err != nil {
				return err
			}
			cfg.Symbols = opts.symbols
			cfg.Workers = opts.workers
			cfg.Graph = opts.graph
			cfg.Measure = opts.measure

			logger, err := newLog(opts.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			res, err := relief.Run(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("run failed", zap.Error(err))

				return err
			}
			logger.Info("wrote composite", zap.String("image", res.Image), zap.String("sidecar", res.Sidecar))

			return nil
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.symbols, "symbols", "", "YAML symbol table (code: \"R,G,B\") replacing the embedded one")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Goroutines blending rows (0 = one per CPU)")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "Write the blend pipeline as a DOT graph to this file")
	cmd.Flags().BoolVar(&opts.measure, "measure", false, "Log the duration of every pipeline step")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(newLogger).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
