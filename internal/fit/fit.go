// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package fit drives maximum-likelihood estimation of the Poisson rate model:
// start-value correction, step scaling, BFGS over the barriered objective,
// the two-pass plain/augmented protocol, the null model and knot sweeps.
package fit

import (
	"context"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"floodtrend/internal/design"
	"floodtrend/internal/observability"
	"floodtrend/internal/poisson"
)

// Defaults for Options.
const (
	DefaultMaxIter   = 100
	DefaultSeed      = 12345
	DefaultTolerance = 1e-8
	DefaultGradStep  = 1e-3
)

// Options controls a Fitter. Zero values take the defaults above.
type Options struct {
	// MaxIter caps major BFGS iterations per pass.
	MaxIter int
	// Seed is recorded on every result so a run can be reproduced. The
	// optimiser itself is deterministic.
	Seed uint64
	// Tolerance is the absolute log-likelihood change below which the
	// optimiser counts an iteration as no progress.
	Tolerance float64
	// GradStep is the central-difference step in scaled coordinates.
	GradStep float64

	Clock   clockwork.Clock
	Metrics *observability.Metrics
}

func (o Options) withDefaults() Options {
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.GradStep <= 0 {
		o.GradStep = DefaultGradStep
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Result is one optimiser run.
type Result struct {
	Form    design.Form
	Params  []float64
	Names   []string
	LogLik  float64
	Hessian *mat.SymDense
	// Surface is B * beta_interaction per location; nil for the null form.
	Surface []float64
	Design  *design.Matrix
	Target  *mat.VecDense

	Start  []float64
	Scales []float64

	Iterations int
	FuncEvals  int
	Status     string
	Converged  bool
	Seed       uint64

	NumObs int
	// Rank is the numerical rank of the design matrix, used as the
	// parameter count of the information criteria.
	Rank int
	AIC  float64
	BIC  float64

	Elapsed time.Duration

	// FirstPass is the plain fit that warm-started an augmented fit.
	FirstPass *Result
}

// TimeSlope returns the plain time coefficient.
func (r *Result) TimeSlope() float64 {
	return r.Params[r.Design.TimeColumn()]
}

// TotalTrend is the time slope at location l: the global time coefficient
// plus the spatial surface.
func (r *Result) TotalTrend(l int) float64 {
	if r.Surface == nil {
		return r.TimeSlope()
	}
	return r.TimeSlope() + r.Surface[l]
}

// Rates returns the fitted rate per design row.
func (r *Result) Rates() *mat.VecDense {
	return poisson.Rates(r.Params, r.Design.X)
}

// Fitter runs fits with fixed options. Safe for concurrent use.
type Fitter struct {
	opts Options
}

// New returns a Fitter.
func New(opts Options) *Fitter {
	return &Fitter{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (f *Fitter) Options() Options { return f.opts }

// Fit maximises the log-likelihood of y under design x. A nil start uses the
// least-squares start. Infeasible starts are corrected; non-convergence is
// not an error and the best iterate is kept.
func (f *Fitter) Fit(ctx context.Context, x *design.Matrix, y *mat.VecDense, start []float64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fit: cancelled before start")
	}
	if x == nil || y == nil {
		return nil, eris.New("fit: design matrix and target are required")
	}
	rows, p := x.Dims()
	if y.Len() != rows {
		return nil, eris.Errorf("fit: %d observations for %d design rows", y.Len(), rows)
	}

	began := f.opts.Clock.Now()

	if start == nil {
		s, err := poisson.OLSStart(x.X, y)
		if err != nil {
			return nil, eris.Wrap(err, "fit: least-squares start")
		}
		start = s
	}
	if len(start) != p {
		return nil, eris.Errorf("fit: start has %d values for %d parameters", len(start), p)
	}

	start = poisson.CorrectStart(start, x.X, y)
	scales := poisson.StepScales(start, x.X, y)

	var infeasible int
	// objective in scaled coordinates z = beta / scale, negated for Minimize
	beta := make([]float64, p)
	objective := func(z []float64) float64 {
		for j := range z {
			beta[j] = z[j] * scales[j]
		}
		ll := poisson.LogLik(beta, x.X, y)
		if poisson.IsInfeasible(ll) {
			infeasible++
		}
		return -ll
	}

	gradSettings := &fd.Settings{Formula: fd.Central, Step: f.opts.GradStep}
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, objective, z, gradSettings)
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		MajorIterations: f.opts.MaxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   f.opts.Tolerance,
			Iterations: 5,
		},
	}

	z0 := make([]float64, p)
	for j := range z0 {
		z0[j] = start[j] / scales[j]
	}

	res, optErr := optimize.Minimize(problem, z0, settings, &optimize.BFGS{})
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fit: cancelled")
	}

	params := make([]float64, p)
	copy(params, start)
	status := optimize.Failure
	var iterations, evals int
	if res != nil {
		status = res.Status
		iterations = res.MajorIterations
		evals = res.FuncEvaluations
		// a run that failed before its first major iteration has F = +Inf
		if !math.IsInf(res.F, 1) && !math.IsNaN(res.F) {
			for j := range params {
				params[j] = res.X[j] * scales[j]
			}
		}
	}

	ll := poisson.LogLik(params, x.X, y)
	if startLL := poisson.LogLik(start, x.X, y); startLL > ll {
		copy(params, start)
		ll = startLL
	}

	converged := optErr == nil && !status.Early()
	if optErr != nil {
		zap.L().Debug("fit: optimiser stopped early, keeping best iterate",
			zap.Stringer("form", x.Form),
			zap.String("status", status.String()),
			zap.Error(optErr),
		)
	}

	result := &Result{
		Form:       x.Form,
		Params:     params,
		Names:      x.Names(),
		LogLik:     ll,
		Hessian:    poisson.Hessian(params, x.X, y),
		Surface:    surface(params, x),
		Design:     x,
		Target:     y,
		Start:      start,
		Scales:     scales,
		Iterations: iterations,
		FuncEvals:  evals,
		Status:     status.String(),
		Converged:  converged,
		Seed:       f.opts.Seed,
		NumObs:     rows,
		Rank:       rank(x.X),
		Elapsed:    f.opts.Clock.Since(began),
	}
	result.AIC, result.BIC = informationCriteria(ll, result.Rank, rows)

	f.record(result, infeasible)
	zap.L().Info("fit: pass complete",
		zap.Stringer("form", x.Form),
		zap.Int("params", p),
		zap.Float64("loglik", ll),
		zap.Int("iterations", iterations),
		zap.String("status", result.Status),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (f *Fitter) record(r *Result, infeasible int) {
	m := f.opts.Metrics
	if m == nil {
		return
	}
	status := "converged"
	if !r.Converged {
		status = "stopped"
	}
	form := r.Form.String()
	m.FitsTotal.WithLabelValues(form, status).Inc()
	m.FitDuration.WithLabelValues(form).Observe(r.Elapsed.Seconds())
	m.FitIterations.WithLabelValues(form).Observe(float64(r.Iterations))
	m.InfeasibleEvaluations.Add(float64(infeasible))
}

func surface(params []float64, x *design.Matrix) []float64 {
	if x.Form == design.Null || x.Basis == nil {
		return nil
	}
	start, end := x.InteractionBlock()
	coef := mat.NewVecDense(end-start, params[start:end])

	var s mat.VecDense
	s.MulVec(x.Basis.Values, coef)

	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.AtVec(i)
	}
	return out
}

// rank is the numerical rank of x, with the same tolerance as the
// least-squares fallback.
func rank(x mat.Matrix) int {
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDNone); !ok {
		_, c := x.Dims()
		return c
	}
	return svd.Rank(1e-12)
}

func informationCriteria(ll float64, k, n int) (aic, bic float64) {
	aic = 2*float64(k) - 2*ll
	bic = float64(k)*math.Log(float64(n)) - 2*ll
	return aic, bic
}
