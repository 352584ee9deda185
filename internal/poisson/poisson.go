// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package poisson holds the likelihood of the identity-link Poisson rate
// model lambda = X*beta, its exact Hessian, and the start-value heuristics
// the optimiser relies on.
package poisson

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// InfeasibleLogLik is returned by LogLik whenever some rate is negative. It
// acts as a barrier for the unconstrained optimiser, so it must stay a
// large finite number rather than -Inf.
const InfeasibleLogLik = -1e10

// IsInfeasible reports whether v is the infeasibility sentinel.
func IsInfeasible(v float64) bool {
	return v == InfeasibleLogLik
}

// Rates returns lambda = X * params.
func Rates(params []float64, x mat.Matrix) *mat.VecDense {
	var lambda mat.VecDense
	lambda.MulVec(x, mat.NewVecDense(len(params), params))
	return &lambda
}

// LogLik is the Poisson log-likelihood of counts y under rates X*params.
// Any negative rate returns InfeasibleLogLik. A zero rate is fine for a zero
// count (log P(0|0) = 0), but a positive count at a zero rate has
// probability zero and also returns the sentinel.
func LogLik(params []float64, x mat.Matrix, y mat.Vector) float64 {
	lambda := Rates(params, x)

	total := 0.0
	for i := 0; i < lambda.Len(); i++ {
		l := lambda.AtVec(i)
		yi := y.AtVec(i)

		if l < 0 || math.IsNaN(l) {
			return InfeasibleLogLik
		}
		if l == 0 {
			if yi == 0 {
				continue
			}
			return InfeasibleLogLik
		}

		total += distuv.Poisson{Lambda: l}.LogProb(yi)
	}

	if math.IsNaN(total) || math.IsInf(total, 0) {
		return InfeasibleLogLik
	}
	return total
}

// Hessian is the exact second derivative of LogLik with respect to params:
//
//	H_ab = -sum_i y_i * x_ia * x_ib / lambda_i^2
//
// Observations with a zero count contribute nothing, so an all-zero count
// vector gives the zero matrix.
func Hessian(params []float64, x mat.Matrix, y mat.Vector) *mat.SymDense {
	lambda := Rates(params, x)
	n, p := x.Dims()

	h := mat.NewSymDense(p, nil)
	row := mat.NewVecDense(p, nil)
	for i := 0; i < n; i++ {
		yi := y.AtVec(i)
		if yi == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			row.SetVec(j, x.At(i, j))
		}
		l := lambda.AtVec(i)
		// h += -(y/l^2) * row * row'
		h.SymRankOne(h, -yi/(l*l), row)
	}
	return h
}
