// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package poisson

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// probe half-width used by StepScales
const scaleProbe = 0.5

// OLSStart returns the least-squares fit of y on x as a start vector.
// It tries the normal equations first and falls back to the minimum-norm
// SVD solution when X'X is singular.
func OLSStart(x mat.Matrix, y mat.Vector) ([]float64, error) {
	n, p := x.Dims()
	if y.Len() != n {
		return nil, eris.Errorf("poisson: %d observations for %d design rows", y.Len(), n)
	}

	beta := mat.NewVecDense(p, nil)

	// First try: normal equations beta = (X'X)^(-1) X'y
	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var xtxInv mat.Dense
	if errInv := xtxInv.Inverse(&xtx); errInv == nil {
		var xty mat.VecDense
		xty.MulVec(x.T(), y)
		beta.MulVec(&xtxInv, &xty)
	} else {
		// Fallback: X'X is singular or badly conditioned, take the
		// minimum-norm least-squares solution
		var svd mat.SVD
		if ok := svd.Factorize(x, mat.SVDThin); !ok {
			return nil, eris.Wrap(errInv, "poisson: normal equations singular and SVD factorization failed")
		}

		// rank 0 means X is numerically zero, beta = 0 is already the answer
		if rank := svd.Rank(1e-12); rank > 0 {
			yMat := mat.NewDense(n, 1, nil)
			for i := 0; i < n; i++ {
				yMat.Set(i, 0, y.AtVec(i))
			}
			var b mat.Dense
			svd.SolveTo(&b, yMat, rank)
			for j := 0; j < p; j++ {
				beta.SetVec(j, b.At(j, 0))
			}
		}
	}

	out := make([]float64, p)
	for j := range out {
		out[j] = beta.AtVec(j)
	}
	return out, nil
}

// CorrectStart makes an infeasible start feasible by raising the intercept
// (column 0, a column of ones) by twice the magnitude of the most negative
// rate. A minimum rate of exactly zero (positive count at zero rate) shifts
// by one. Feasible starts are returned unchanged (as a copy).
func CorrectStart(start []float64, x mat.Matrix, y mat.Vector) []float64 {
	out := make([]float64, len(start))
	copy(out, start)

	if !IsInfeasible(LogLik(out, x, y)) {
		return out
	}

	lambda := Rates(out, x)
	minRate := floats.Min(lambda.RawVector().Data)
	shift := 2 * math.Abs(minRate)
	if shift == 0 {
		shift = 1
	}
	out[0] += shift
	return out
}

// StepScales returns one scale per parameter so that a unit step in the
// scaled coordinate changes the log-likelihood by roughly one. Each
// parameter is probed at +-0.5; when the lower probe is infeasible the
// window [p, p+1] is used instead. A window that stays infeasible or
// leaves the log-likelihood flat gets scale 1.
func StepScales(params []float64, x mat.Matrix, y mat.Vector) []float64 {
	scales := make([]float64, len(params))
	probe := make([]float64, len(params))

	ll := func(j int, v float64) float64 {
		copy(probe, params)
		probe[j] = v
		return LogLik(probe, x, y)
	}

	for j, p := range params {
		scales[j] = 1

		lo, hi := ll(j, p-scaleProbe), ll(j, p+scaleProbe)
		if IsInfeasible(lo) {
			lo, hi = ll(j, p), ll(j, p+2*scaleProbe)
		}
		if IsInfeasible(lo) || IsInfeasible(hi) {
			continue
		}

		diff := math.Abs(hi - lo)
		if diff == 0 || math.IsNaN(diff) || math.IsInf(diff, 0) {
			continue
		}
		if s := 1 / diff; !math.IsInf(s, 0) {
			scales[j] = s
		}
	}
	return scales
}
