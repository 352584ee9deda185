// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package fit

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"floodtrend/internal/design"
	"floodtrend/internal/grid"
	"floodtrend/internal/simulate"
	"floodtrend/internal/spline"
)

// BootstrapResult is a parametric-bootstrap calibration of the
// likelihood-ratio statistic.
type BootstrapResult struct {
	Observed float64
	// Stats holds one statistic per successful replicate, in replicate order.
	Stats  []float64
	Failed int
	// PValue is (1 + #{stat >= observed}) / (1 + len(Stats)).
	PValue float64
	// Critical is the 1 - alpha quantile of Stats.
	Critical float64
}

// BootstrapLR redraws n count tables from the fitted null rates, refits the
// null and spatial models on each, and compares the observed statistic with
// the replicate distribution. Replicate seeds derive from the fitter's seed
// and up to workers replicates run at once. A failed replicate is logged
// and left out; cancellation aborts.
func (f *Fitter) BootstrapLR(ctx context.Context, g *grid.Grid, counts *grid.CountTable, basis *spline.BasisSet, null *Result, observed float64, n, workers int, alpha float64) (*BootstrapResult, error) {
	if n < 1 {
		return nil, eris.Errorf("fit: bootstrap needs at least 1 replicate, got %d", n)
	}
	if basis == nil {
		return nil, eris.New("fit: bootstrap needs a spatial basis")
	}
	if null == nil || null.Form != design.Null {
		return nil, eris.New("fit: bootstrap needs a null-model fit")
	}
	if workers < 1 {
		workers = 1
	}

	nYear, nLoc := counts.Dims()
	rates, err := design.Reshape(null.Rates(), nYear, nLoc)
	if err != nil {
		return nil, eris.Wrap(err, "fit: bootstrap null rates")
	}
	// rates come from a feasible fit, so only rounding can push one below zero
	for i := 0; i < nYear; i++ {
		for j := 0; j < nLoc; j++ {
			if rates.At(i, j) < 0 {
				rates.Set(i, j, 0)
			}
		}
	}

	seeds := simulate.Seeds(f.opts.Seed, n)
	stats := make([]float64, n)
	ok := make([]bool, n)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for b := 0; b < n; b++ {
		eg.Go(func() error {
			log := zap.L().With(zap.Int("replicate", b))

			star, err := simulate.Sample(counts.Name, counts.Years, rates, seeds[b])
			if err != nil {
				log.Warn("fit: bootstrap sample failed", zap.Error(err))
				return nil
			}
			nullStar, err := f.Null(egCtx, g, star)
			if err != nil {
				if egCtx.Err() != nil {
					return err
				}
				log.Warn("fit: bootstrap null fit failed", zap.Error(err))
				return nil
			}
			fullStar, err := f.TwoPass(egCtx, g, star, basis)
			if err != nil {
				if egCtx.Err() != nil {
					return err
				}
				log.Warn("fit: bootstrap spatial fit failed", zap.Error(err))
				return nil
			}

			stat := 2 * (fullStar.LogLik - nullStar.LogLik)
			if stat < 0 || math.IsNaN(stat) {
				stat = 0
			}
			stats[b] = stat
			ok[b] = true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, eris.Wrap(err, "fit: bootstrap")
	}

	res := &BootstrapResult{Observed: observed}
	exceed := 0
	for b := range stats {
		if !ok[b] {
			res.Failed++
			continue
		}
		res.Stats = append(res.Stats, stats[b])
		if stats[b] >= observed {
			exceed++
		}
	}
	if len(res.Stats) == 0 {
		return nil, eris.New("fit: every bootstrap replicate failed")
	}
	res.PValue = float64(1+exceed) / float64(1+len(res.Stats))
	res.Critical = quantile(res.Stats, 1-alpha)

	zap.L().Info("fit: bootstrap complete",
		zap.Int("replicates", len(res.Stats)),
		zap.Int("failed", res.Failed),
		zap.Float64("observed", observed),
		zap.Float64("p_value", res.PValue),
	)
	return res, nil
}

// quantile returns the empirical q-quantile of samples (0 <= q <= 1)
// using linear interpolation between order statistics.
func quantile(samples []float64, q float64) float64 {
	n := len(samples)
	if n == 0 {
		return math.NaN()
	}

	tmp := make([]float64, n)
	copy(tmp, samples)
	sort.Float64s(tmp)

	if q <= 0 {
		return tmp[0]
	}
	if q >= 1 {
		return tmp[n-1]
	}

	pos := q * float64(n-1)
	below := int(math.Floor(pos))
	above := int(math.Ceil(pos))
	if above == below {
		return tmp[below]
	}

	weight := pos - float64(below)
	return tmp[below]*(1-weight) + tmp[above]*weight
}
