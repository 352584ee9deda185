// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package fit

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"floodtrend/internal/grid"
	"floodtrend/internal/lrtest"
	"floodtrend/internal/spline"
	"floodtrend/internal/uncertainty"
)

// SweepRow summarises one hyperparameter setting of a knot sweep.
type SweepRow struct {
	Hyper      spline.Hyper
	NumBases   int
	LogLik     float64
	AIC        float64
	BIC        float64
	LR         lrtest.Result
	MSE        float64
	Iterations int
	Converged  bool
}

// Hypers returns square knot configurations (k x k) at one order.
func Hypers(knots []int, order int) []spline.Hyper {
	out := make([]spline.Hyper, 0, len(knots))
	for _, k := range knots {
		out = append(out, spline.Hyper{KnotsLon: k, KnotsLat: k, Order: order})
	}
	return out
}

// Sweep fits every hyperparameter setting against the same null model,
// running up to workers fits at once. Basis sets are shared through a
// cache. Rows come back sorted by BIC, best first. A failing setting is
// logged and skipped; only cancellation aborts the sweep.
func (f *Fitter) Sweep(ctx context.Context, g *grid.Grid, counts *grid.CountTable, hypers []spline.Hyper, workers int) ([]SweepRow, error) {
	if len(hypers) == 0 {
		return nil, eris.New("fit: sweep has no hyperparameters")
	}
	if workers < 1 {
		workers = 1
	}

	null, err := f.Null(ctx, g, counts)
	if err != nil {
		return nil, eris.Wrap(err, "fit: sweep null model")
	}

	cache := spline.NewCache(g)
	rows := make([]*SweepRow, len(hypers))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, h := range hypers {
		eg.Go(func() error {
			if m := f.opts.Metrics; m != nil {
				m.SweepInFlight.Inc()
				defer m.SweepInFlight.Dec()
			}
			log := zap.L().With(zap.Stringer("hyper", h))

			basis, err := cache.Get(h)
			if err != nil {
				log.Warn("fit: sweep basis failed, skipping", zap.Error(err))
				return nil
			}
			res, err := f.TwoPass(egCtx, g, counts, basis)
			if err != nil {
				if egCtx.Err() != nil {
					return err
				}
				log.Warn("fit: sweep fit failed, skipping", zap.Error(err))
				return nil
			}

			rows[i] = &SweepRow{
				Hyper:      h,
				NumBases:   basis.NumBases(),
				LogLik:     res.LogLik,
				AIC:        res.AIC,
				BIC:        res.BIC,
				LR:         lrtest.Test(null.LogLik, res.LogLik, h),
				MSE:        uncertainty.MSE(res.Params, res.Design.X, res.Target),
				Iterations: res.Iterations,
				Converged:  res.Converged,
			}
			log.Info("fit: sweep setting complete",
				zap.Float64("bic", res.BIC),
				zap.Float64("lr_p", rows[i].LR.PValue),
			)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, eris.Wrap(err, "fit: sweep")
	}

	out := make([]SweepRow, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(out) == 0 {
		return nil, eris.New("fit: every sweep setting failed")
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BIC < out[j].BIC })
	return out, nil
}
