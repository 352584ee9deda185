// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"floodtrend/internal/fit"
	"floodtrend/internal/grid"
	"floodtrend/internal/report"
)

var (
	sweepGridPath   string
	sweepCountsPath string
	sweepKnots      []int
	sweepWorkers    int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Fit a range of knot counts and rank them by BIC",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("knots") {
			cfg.Sweep.Knots = sweepKnots
		}
		if cmd.Flags().Changed("workers") {
			cfg.Sweep.Workers = sweepWorkers
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		g, counts, err := loadInputs(sweepGridPath, sweepCountsPath)
		if err != nil {
			return err
		}
		_, err = runSweep(ctx, g, counts, cmd.OutOrStdout())
		return err
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepGridPath, "grid", "grid.csv", "grid CSV with lon,lat columns")
	sweepCmd.Flags().StringVar(&sweepCountsPath, "counts", "counts.csv", "count CSV with a year column then one column per location")
	sweepCmd.Flags().IntSliceVar(&sweepKnots, "knots", nil, "knot counts to try, used on both axes")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "fits to run at once")
	rootCmd.AddCommand(sweepCmd)
}

// runSweep runs the configured knot sweep, writes sweep.csv and prints the
// ranking to out.
func runSweep(ctx context.Context, g *grid.Grid, counts *grid.CountTable, out io.Writer) ([]fit.SweepRow, error) {
	hypers := cfg.SweepHypers()
	if len(hypers) == 0 {
		return nil, eris.New("sweep: no knot counts configured")
	}

	zap.L().Info("starting knot sweep",
		zap.String("outcome", counts.Name),
		zap.Ints("knots", cfg.Sweep.Knots),
		zap.Int("order", cfg.Model.Order),
		zap.Int("workers", cfg.Sweep.Workers),
	)

	fitter := fit.New(cfg.FitOptions(clock, metrics))
	rows, err := fitter.Sweep(ctx, g, counts, hypers, cfg.Sweep.Workers)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].LR = rows[i].LR.WithAlpha(cfg.Model.Alpha)
	}

	if err := report.SaveSweep(cfg.Output.Dir, rows); err != nil {
		return nil, err
	}
	zap.L().Info("sweep complete",
		zap.Stringer("best", rows[0].Hyper),
		zap.Float64("best_bic", rows[0].BIC),
		zap.Int("settings", len(rows)),
	)

	report.PrintSweep(out, rows)
	return rows, nil
}
