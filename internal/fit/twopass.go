// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package fit

import (
	"context"

	"github.com/rotisserie/eris"

	"floodtrend/internal/design"
	"floodtrend/internal/grid"
	"floodtrend/internal/spline"
)

// Null fits the intercept + time model.
func (f *Fitter) Null(ctx context.Context, g *grid.Grid, counts *grid.CountTable) (*Result, error) {
	x, err := design.ForTable(g, counts, nil, design.Null)
	if err != nil {
		return nil, eris.Wrap(err, "fit: null design")
	}
	return f.Fit(ctx, x, design.Target(counts), nil)
}

// TwoPass fits the plain design from a least-squares start, then refits the
// augmented design warm-started from the plain estimate with a zero
// spatial-intercept block. It returns the augmented result with the plain
// one attached as FirstPass. A nil basis is the null model and runs once.
func (f *Fitter) TwoPass(ctx context.Context, g *grid.Grid, counts *grid.CountTable, basis *spline.BasisSet) (*Result, error) {
	if basis == nil {
		return f.Null(ctx, g, counts)
	}
	y := design.Target(counts)

	plainX, err := design.ForTable(g, counts, basis, design.Plain)
	if err != nil {
		return nil, eris.Wrap(err, "fit: plain design")
	}
	plain, err := f.Fit(ctx, plainX, y, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fit: plain pass")
	}

	augX, err := design.ForTable(g, counts, basis, design.Augmented)
	if err != nil {
		return nil, eris.Wrap(err, "fit: augmented design")
	}
	aug, err := f.Fit(ctx, augX, y, WarmStart(plain.Params, plainX, augX))
	if err != nil {
		return nil, eris.Wrap(err, "fit: augmented pass")
	}
	aug.FirstPass = plain
	return aug, nil
}

// WarmStart maps plain parameters onto the augmented layout: the fixed
// columns and the interaction block carry over, the spatial-intercept block
// starts at zero. Fitted rates are unchanged by the mapping.
func WarmStart(plain []float64, plainX, augX *design.Matrix) []float64 {
	out := make([]float64, augX.NumParams())

	ps, pe := plainX.InteractionBlock()
	copy(out, plain[:ps])

	as, _ := augX.InteractionBlock()
	copy(out[as:], plain[ps:pe])
	return out
}
