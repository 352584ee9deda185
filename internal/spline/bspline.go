// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package spline evaluates 1-D B-spline bases over grid coordinates and their
// tensor product per location.
package spline

import (
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// NumBases is the number of 1-D basis functions for nKnots break points
// (both boundaries included) and the given polynomial order.
func NumBases(nKnots, order int) int {
	return nKnots + order - 2
}

// Knots returns the full knot vector: nKnots evenly spaced break points over
// [lo, hi] with each boundary repeated order times.
func Knots(lo, hi float64, nKnots, order int) []float64 {
	knots := make([]float64, 0, nKnots+2*(order-1))
	for i := 0; i < order-1; i++ {
		knots = append(knots, lo)
	}
	for i := 0; i < nKnots; i++ {
		// pin the last break to hi exactly so x == hi lands inside the range
		if i == nKnots-1 {
			knots = append(knots, hi)
			continue
		}
		knots = append(knots, lo+(hi-lo)*float64(i)/float64(nKnots-1))
	}
	for i := 0; i < order-1; i++ {
		knots = append(knots, hi)
	}
	return knots
}

// BSpline evaluates the B-spline basis at every x. Rows are points, columns
// are basis functions in knot order. Every row sums to one.
func BSpline(x []float64, lo, hi float64, nKnots, order int) (*mat.Dense, error) {
	if nKnots < 2 {
		return nil, eris.Errorf("spline: need at least 2 knots, got %d", nKnots)
	}
	if order < 1 {
		return nil, eris.Errorf("spline: order must be >= 1, got %d", order)
	}
	if !(hi > lo) {
		return nil, eris.Errorf("spline: degenerate coordinate range [%v, %v]", lo, hi)
	}
	if len(x) == 0 {
		return nil, eris.New("spline: no evaluation points")
	}

	knots := Knots(lo, hi, nKnots, order)
	nb := NumBases(nKnots, order)
	out := mat.NewDense(len(x), nb, nil)

	work := make([]float64, len(knots)-1)
	for r, v := range x {
		if v < lo || v > hi {
			return nil, eris.Errorf("spline: point %d (%v) outside [%v, %v]", r, v, lo, hi)
		}
		basisRow(work, v, knots, order)
		out.SetRow(r, work[:nb])
	}
	return out, nil
}

// basisRow fills b with the order-k basis values at x using the Cox-de Boor
// recursion. b must have len(knots)-1 entries.
func basisRow(b []float64, x float64, knots []float64, order int) {
	for i := range b {
		b[i] = 0
	}
	b[findSpan(x, knots)] = 1

	m := len(knots)
	for k := 2; k <= order; k++ {
		for i := 0; i < m-k; i++ {
			var v float64
			// 0/0 terms are defined as zero
			if d := knots[i+k-1] - knots[i]; d > 0 {
				v += (x - knots[i]) / d * b[i]
			}
			if d := knots[i+k] - knots[i+1]; d > 0 {
				v += (knots[i+k] - x) / d * b[i+1]
			}
			b[i] = v
		}
	}
}

// findSpan returns i with knots[i] <= x < knots[i+1]. The right boundary
// belongs to the last non-empty interval.
func findSpan(x float64, knots []float64) int {
	last := 0
	for i := 0; i < len(knots)-1; i++ {
		if knots[i] < knots[i+1] {
			if x >= knots[i] && x < knots[i+1] {
				return i
			}
			last = i
		}
	}
	return last
}
