// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package uncertainty turns the exact Hessian of a fit into a covariance
// matrix, standard errors, Wald intervals and significance flags for both the
// parameters and the derived per-location trend surface.
package uncertainty

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"floodtrend/internal/design"
	"floodtrend/internal/poisson"
)

// DefaultAlpha is the significance level used when Options.Alpha is zero.
const DefaultAlpha = 0.05

// Warning reasons.
const (
	ReasonNegative       = "negative variance clamped to zero"
	ReasonUnidentifiable = "parameter not identified by the Hessian"
)

// Warning flags a parameter whose standard error could not be estimated. The
// pipeline keeps going and records a zero standard error for it.
type Warning struct {
	Index    int
	Name     string
	Variance float64
	Reason   string
}

// Covariance inverts the negative Hessian through the pseudo-inverse and
// rebuilds it as L D L' from a generalized Cholesky factorisation, which
// is symmetric positive semi-definite even for a singular Hessian.
// Variances that end up negative, or belong to directions the Hessian does
// not see at all, are set to zero and reported.
func Covariance(hess mat.Symmetric) (*mat.SymDense, []Warning) {
	n := hess.SymmetricDim()

	var neg mat.Dense
	neg.Scale(-1, hess)

	pinv, err := PseudoInverse(&neg)
	if err != nil {
		// the SVD of a finite square matrix does not fail in practice, but a
		// NaN Hessian can get here
		zap.L().Warn("uncertainty: pseudo-inverse failed, covariance set to zero", zap.Error(err))
		warnings := make([]Warning, n)
		for i := range warnings {
			warnings[i] = Warning{Index: i, Variance: math.NaN(), Reason: ReasonUnidentifiable}
		}
		return mat.NewSymDense(n, nil), warnings
	}

	sym := mat.NewSymDense(n, nil)
	maxDiag := 0.0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(pinv.At(i, j)+pinv.At(j, i)))
		}
		maxDiag = math.Max(maxDiag, sym.At(i, i))
	}

	l, d, _ := GeneralizedCholesky(sym)
	cov := reconstruct(l, d)

	var warnings []Warning
	for i := 0; i < n; i++ {
		v := cov.At(i, i)
		switch {
		case sym.At(i, i) <= sqrtEps*maxDiag:
			warnings = append(warnings, Warning{Index: i, Variance: v, Reason: ReasonUnidentifiable})
			zeroRowCol(cov, i)
		case v < 0:
			warnings = append(warnings, Warning{Index: i, Variance: v, Reason: ReasonNegative})
			zeroRowCol(cov, i)
		}
	}
	return cov, warnings
}

func zeroRowCol(s *mat.SymDense, i int) {
	n := s.SymmetricDim()
	for j := 0; j < n; j++ {
		s.SetSym(i, j, 0)
	}
}

// Row is one line of a significance table.
type Row struct {
	Name        string
	Estimate    float64
	StdErr      float64
	Z           float64
	PValue      float64
	Lower       float64
	Upper       float64
	Significant bool
}

// SurfaceRow is the per-location spatially varying time coefficient.
type SurfaceRow struct {
	Row
	Location int
	Lon      float64
	Lat      float64
}

// Options configures Estimate.
type Options struct {
	// Alpha is the significance level of the Wald intervals.
	Alpha float64
}

// Report is the full uncertainty summary of one fit.
type Report struct {
	Alpha      float64
	Covariance *mat.SymDense
	Params     []Row
	// Surface is empty for the null form.
	Surface  []SurfaceRow
	MSE      float64
	Warnings []Warning
}

// NumSignificant counts significant surface locations.
func (r *Report) NumSignificant() int {
	n := 0
	for _, s := range r.Surface {
		if s.Significant {
			n++
		}
	}
	return n
}

// Estimate builds the parameter and surface significance tables plus the
// in-sample MSE of fitted rates against y.
func Estimate(params []float64, hess mat.Symmetric, x *design.Matrix, y mat.Vector, lons, lats []float64, opts Options) (*Report, error) {
	if x == nil {
		return nil, eris.New("uncertainty: design matrix not provided")
	}
	p := x.NumParams()
	if len(params) != p {
		return nil, eris.Errorf("uncertainty: %d parameters for %d design columns", len(params), p)
	}
	if hess == nil || hess.SymmetricDim() != p {
		return nil, eris.Errorf("uncertainty: Hessian does not match %d parameters", p)
	}
	rows, _ := x.Dims()
	if y.Len() != rows {
		return nil, eris.Errorf("uncertainty: %d observations for %d design rows", y.Len(), rows)
	}

	alpha := opts.Alpha
	if alpha == 0 {
		alpha = DefaultAlpha
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, eris.Errorf("uncertainty: alpha %v outside (0, 1)", alpha)
	}
	zCrit := distuv.UnitNormal.Quantile(1 - alpha/2)

	cov, warnings := Covariance(hess)
	names := x.Names()
	for i := range warnings {
		warnings[i].Name = names[warnings[i].Index]
		zap.L().Warn("uncertainty: standard error not identifiable",
			zap.String("param", warnings[i].Name),
			zap.Float64("variance", warnings[i].Variance),
			zap.String("reason", warnings[i].Reason),
		)
	}

	rep := &Report{
		Alpha:      alpha,
		Covariance: cov,
		Params:     make([]Row, p),
		Warnings:   warnings,
	}
	for i := 0; i < p; i++ {
		rep.Params[i] = waldRow(names[i], params[i], cov.At(i, i), zCrit)
	}

	if x.Form != design.Null && x.Basis != nil {
		surface, err := surfaceRows(params, cov, x, lons, lats, zCrit)
		if err != nil {
			return nil, err
		}
		rep.Surface = surface
	}

	rep.MSE = MSE(params, x.X, y)
	return rep, nil
}

func surfaceRows(params []float64, cov *mat.SymDense, x *design.Matrix, lons, lats []float64, zCrit float64) ([]SurfaceRow, error) {
	b := x.Basis.Values
	nLoc, k := b.Dims()
	if len(lons) != nLoc || len(lats) != nLoc {
		return nil, eris.Errorf("uncertainty: %d basis rows for %d coordinates", nLoc, len(lons))
	}
	start, end := x.InteractionBlock()

	coef := mat.NewVecDense(k, nil)
	for j := 0; j < k; j++ {
		coef.SetVec(j, params[start+j])
	}
	var est mat.VecDense
	est.MulVec(b, coef)

	// Var(B beta_sub) = B Sigma_sub B'
	sub := cov.SliceSym(start, end)
	var bs, surfCov mat.Dense
	bs.Mul(b, sub)
	surfCov.Mul(&bs, b.T())

	out := make([]SurfaceRow, nLoc)
	for l := 0; l < nLoc; l++ {
		v := surfCov.At(l, l)
		if v < 0 {
			v = 0
		}
		out[l] = SurfaceRow{
			Row:      waldRow("", est.AtVec(l), v, zCrit),
			Location: l,
			Lon:      lons[l],
			Lat:      lats[l],
		}
	}
	return out, nil
}

func waldRow(name string, est, variance, zCrit float64) Row {
	se := 0.0
	if variance > 0 {
		se = math.Sqrt(variance)
	}

	var z, pv float64
	switch {
	case se > 0:
		z = est / se
		pv = 2 * distuv.UnitNormal.Survival(math.Abs(z))
	case est == 0:
		z, pv = 0, 1
	default:
		z, pv = math.Inf(int(math.Copysign(1, est))), 0
	}
	if pv > 1 {
		pv = 1
	}

	lower := est - zCrit*se
	upper := est + zCrit*se
	return Row{
		Name:        name,
		Estimate:    est,
		StdErr:      se,
		Z:           z,
		PValue:      pv,
		Lower:       lower,
		Upper:       upper,
		Significant: lower > 0 || upper < 0,
	}
}

// MSE is the mean squared difference between fitted rates and counts.
func MSE(params []float64, x mat.Matrix, y mat.Vector) float64 {
	lambda := poisson.Rates(params, x)
	n := lambda.Len()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		d := lambda.AtVec(i) - y.AtVec(i)
		sum += d * d
	}
	return sum / float64(n)
}
