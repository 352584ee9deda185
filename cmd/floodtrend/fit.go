// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"floodtrend/internal/fit"
	"floodtrend/internal/grid"
	"floodtrend/internal/lrtest"
	"floodtrend/internal/report"
	"floodtrend/internal/spline"
	"floodtrend/internal/uncertainty"
)

var (
	fitGridPath   string
	fitCountsPath string
	fitVerbose    bool
	fitBootstrap  int
	fitWorkers    int
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit the spatial trend model and test it against the null model",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("bootstrap") {
			cfg.Model.Bootstrap = fitBootstrap
		}
		if cmd.Flags().Changed("workers") {
			cfg.Sweep.Workers = fitWorkers
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		g, counts, err := loadInputs(fitGridPath, fitCountsPath)
		if err != nil {
			return err
		}
		_, err = runFit(cmd.Context(), g, counts, cmd.OutOrStdout(), fitVerbose)
		return err
	},
}

func init() {
	fitCmd.Flags().StringVar(&fitGridPath, "grid", "grid.csv", "grid CSV with lon,lat columns")
	fitCmd.Flags().StringVar(&fitCountsPath, "counts", "counts.csv", "count CSV with a year column then one column per location")
	fitCmd.Flags().BoolVar(&fitVerbose, "verbose", false, "also print the parameter covariance matrix")
	fitCmd.Flags().IntVar(&fitBootstrap, "bootstrap", 0, "parametric-bootstrap replicates for the LR test (0 skips)")
	fitCmd.Flags().IntVar(&fitWorkers, "workers", 0, "bootstrap replicates to fit at once")
	rootCmd.AddCommand(fitCmd)
}

// loadInputs reads the grid and count table and checks they line up.
func loadInputs(gridPath, countsPath string) (*grid.Grid, *grid.CountTable, error) {
	g, err := grid.LoadGridCSV(gridPath)
	if err != nil {
		return nil, nil, eris.Wrap(err, "load grid")
	}
	counts, err := grid.LoadCountsCSV(countsPath, cfg.Model.Outcome)
	if err != nil {
		return nil, nil, eris.Wrap(err, "load counts")
	}
	if err := counts.CheckGrid(g); err != nil {
		return nil, nil, err
	}
	return g, counts, nil
}

// runFit fits the null and configured models, estimates uncertainty, writes
// the output files and prints the tables to out.
func runFit(ctx context.Context, g *grid.Grid, counts *grid.CountTable, out io.Writer, verbose bool) (*report.Summary, error) {
	hyper := cfg.Hyper()
	fitter := fit.New(cfg.FitOptions(clock, metrics))

	log := zap.L().With(zap.String("outcome", counts.Name), zap.Stringer("hyper", hyper))
	log.Info("fitting null model")
	null, err := fitter.Null(ctx, g, counts)
	if err != nil {
		return nil, eris.Wrap(err, "null fit")
	}

	full := null
	var basis *spline.BasisSet
	if !hyper.IsNull() {
		basis, err = spline.NewBasisSet(g, hyper)
		if err != nil {
			return nil, eris.Wrap(err, "basis")
		}
		log.Info("fitting spatial model", zap.Int("bases", basis.NumBases()), zap.Int("dropped", basis.Dropped()))
		full, err = fitter.TwoPass(ctx, g, counts, basis)
		if err != nil {
			return nil, eris.Wrap(err, "spatial fit")
		}
	}

	lr := lrtest.Test(null.LogLik, full.LogLik, hyper).WithAlpha(cfg.Model.Alpha)

	var boot *fit.BootstrapResult
	if cfg.Model.Bootstrap > 0 && basis != nil {
		log.Info("bootstrapping LR test", zap.Int("replicates", cfg.Model.Bootstrap))
		boot, err = fitter.BootstrapLR(ctx, g, counts, basis, null, lr.Stat, cfg.Model.Bootstrap, cfg.Sweep.Workers, cfg.Model.Alpha)
		if err != nil {
			return nil, eris.Wrap(err, "bootstrap")
		}
	}

	rep, err := uncertainty.Estimate(full.Params, full.Hessian, full.Design, full.Target, g.Lons(), g.Lats(),
		uncertainty.Options{Alpha: cfg.Model.Alpha})
	if err != nil {
		return nil, eris.Wrap(err, "uncertainty")
	}
	metrics.UnidentifiedParams.Add(float64(len(rep.Warnings)))

	run := report.Run{
		Counts:               counts,
		Hyper:                hyper,
		Null:                 null,
		Full:                 full,
		LR:                   lr,
		Report:               rep,
		Bootstrap:            boot,
		ThresholdPercentiles: cfg.Model.ThresholdPercentiles,
	}
	summary, err := report.NewSummary(run, clock.Now())
	if err != nil {
		return nil, err
	}
	if err := report.SaveRun(cfg.Output.Dir, run, summary); err != nil {
		return nil, err
	}

	log.Info("fit complete",
		zap.String("run_id", summary.RunID),
		zap.Float64("lr_p", lr.PValue),
		zap.Int("significant_locations", summary.SignificantLocations),
		zap.String("out", cfg.Output.Dir),
	)

	report.PrintSummary(out, summary)
	report.PrintParams(out, rep.Params)
	report.PrintSurface(out, rep.Surface)
	if verbose {
		report.PrintCovariance(out, rep.Covariance)
	}
	return summary, nil
}
